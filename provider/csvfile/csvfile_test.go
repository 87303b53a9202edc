package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockchart/provider"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func clock() time.Time {
	return time.Date(2024, time.March, 8, 21, 0, 0, 0, time.UTC)
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "date,open,close\n"+
		"2024-03-08,169.00,170.73\n"+
		"2024-03-06,171.06,169.12\n"+
		"2024-02-20,181.79,181.56\n")

	p := New(dir, clock)
	closes, err := p.History(context.Background(), "aapl", 5)
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.Equal(t, 169.12, closes[0].Price)
	assert.Equal(t, 170.73, closes[1].Price)
}

func TestHistory_CandleCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "MSFT.csv", "time,instrument,granularity,complete,volume,o,h,l,c\n"+
		"2024-03-07T05:00:00Z,MSFT,D,true,100,400.1,410.2,399.0,409.14\n")

	closes, err := New(dir, clock).History(context.Background(), "MSFT", 3)
	require.NoError(t, err)
	require.Len(t, closes, 1)
	assert.Equal(t, 409.14, closes[0].Price)
}

func TestHistory_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "OLD.csv", "date,close\n2020-01-02,1.0\n")
	writeFile(t, dir, "BAD.csv", "date,close\n2024-03-07,abc\n")
	writeFile(t, dir, "NOHDR.csv", "foo,bar\n1,2\n")

	p := New(dir, clock)
	ctx := context.Background()

	_, err := p.History(ctx, "NFLX", 5)
	assert.ErrorIs(t, err, provider.ErrUnknownSymbol)

	_, err = p.History(ctx, "OLD", 5)
	assert.ErrorIs(t, err, provider.ErrNoData)

	_, err = p.History(ctx, "BAD", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse close")

	_, err = p.History(ctx, "NOHDR", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header needs date and close")
}

func TestHistory_WindowBoundary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AMZN.csv", "date,close\n"+
		"2024-03-03,177.58\n"+
		"2024-03-04,177.58\n"+
		"2024-03-08,175.35\n")

	p := New(dir, clock)
	closes, err := p.History(context.Background(), "AMZN", 5)
	require.NoError(t, err)
	require.Len(t, closes, 2, "five calendar days end on the 8th and start on the 4th")
	assert.Equal(t, 4, closes[0].Time.Day())

	closes, err = p.History(context.Background(), "AMZN", 1)
	require.NoError(t, err)
	require.Len(t, closes, 1)
	assert.Equal(t, 175.35, closes[0].Price)
}
