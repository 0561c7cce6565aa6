package driver

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/config"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/generator"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
)

var alnum = regexp.MustCompile(`^[A-Za-z0-9]{50,100}$`)

func setup(t *testing.T, schemaText string) (input, output string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "schema.txt")
	output = filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(schemaText), 0o644))
	return input, output
}

func testDriver() *Driver {
	p := config.DefaultParams()
	p.Seed = 11
	return New(p, zap.NewNop())
}

func readRows(t *testing.T, path string) [][]core.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows [][]core.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var line []core.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line), scanner.Text())
		rows = append(rows, line)
	}
	require.NoError(t, scanner.Err())
	return rows
}

func TestRunNameActive(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\nactive:BOOLEAN\n")

	res, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, 2, res.Fields)

	rows := readRows(t, output)
	require.Len(t, rows, 3)
	for _, line := range rows {
		require.Len(t, line, 1)
		rec := line[0]
		assert.Equal(t, []string{"name", "active"}, rec.Names())

		name, _ := rec.Get("name")
		require.IsType(t, "", name)
		assert.Regexp(t, alnum, name)

		active, _ := rec.Get("active")
		assert.IsType(t, true, active)
	}
}

func TestRunEmptySchema(t *testing.T) {
	input, output := setup(t, "")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 4})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "[{}]\n[{}]\n[{}]\n[{}]\n", string(data))
}

func TestRunAllTypes(t *testing.T) {
	input, output := setup(t, "s:VARCHAR\nv:VARIANT\nb:BOOLEAN\nf:FLOAT\na:ARRAY\nts:TIMESTAMP_NTZ\n")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 25})
	require.NoError(t, err)

	rows := readRows(t, output)
	require.Len(t, rows, 25)
	for _, line := range rows {
		rec := line[0]
		assert.Equal(t, []string{"s", "v", "b", "f", "a", "ts"}, rec.Names())

		f, _ := rec.Get("f")
		require.IsType(t, float64(0), f)
		assert.GreaterOrEqual(t, f.(float64), -1000.0)
		assert.LessOrEqual(t, f.(float64), 1000.0)

		a, _ := rec.Get("a")
		require.IsType(t, []any{}, a)
		assert.GreaterOrEqual(t, len(a.([]any)), 5)
		assert.LessOrEqual(t, len(a.([]any)), 15)
		for _, el := range a.([]any) {
			assert.Regexp(t, alnum, el)
		}

		ts, _ := rec.Get("ts")
		assert.Regexp(t, `^2024-0[1-6]-\d\dT(0[1-9]|1[0-2]):[0-5]\d:(AM|PM)$`, ts)
	}
}

func TestRunZeroRows(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\n")

	res, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 0})
	require.NoError(t, err)
	assert.Zero(t, res.Rows)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRunNegativeRows(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\n")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: -1})
	assert.Error(t, err)
}

func TestRunMissingSchema(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.jsonl")

	_, err := testDriver().Run(context.Background(), Options{Input: filepath.Join(dir, "nope.txt"), Output: output, NumRows: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrSchemaRead))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "output must not be created without a schema")
}

func TestRunMalformedSchema(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\nbroken\n")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrMalformedLine))
}

func TestRunUnknownType(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\nx:INT\n")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, generator.ErrUnknownType))
	assert.Contains(t, err.Error(), `"x"`)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no rows may be written for an unknown type")
}

func TestRunUnwritableOutput(t *testing.T) {
	input, _ := setup(t, "name:VARCHAR\n")
	output := filepath.Join(t.TempDir(), "missing-dir", "out.jsonl")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: output, NumRows: 3})
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := testDriver().Run(ctx, Options{Input: input, Output: output, NumRows: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Rows)
}

func TestRunProgress(t *testing.T) {
	input, output := setup(t, "name:VARCHAR\n")

	d := testDriver()
	var calls []int
	d.Progress = func(done, total int) {
		assert.Equal(t, 5, total)
		calls = append(calls, done)
	}

	_, err := d.Run(context.Background(), Options{Input: input, Output: output, NumRows: 5})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestRunSeedIsReproducible(t *testing.T) {
	input, first := setup(t, "a:VARCHAR\nb:ARRAY\nc:FLOAT\n")
	second := filepath.Join(t.TempDir(), "again.jsonl")

	_, err := testDriver().Run(context.Background(), Options{Input: input, Output: first, NumRows: 5})
	require.NoError(t, err)
	_, err = testDriver().Run(context.Background(), Options{Input: input, Output: second, NumRows: 5})
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewNilLogger(t *testing.T) {
	d := New(config.DefaultParams(), nil)
	require.NotNil(t, d.Logger)
}
