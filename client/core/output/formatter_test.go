package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type table struct {
	rows [][]string
}

func (t table) Header() []string { return []string{"CONTRACT", "FILE"} }
func (t table) Rows() [][]string { return t.rows }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"json", FormatJSON, false},
		{"pretty", FormatPretty, false},
		{"table", FormatTable, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatter_Print(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	data := table{rows: [][]string{{"Erc20Token", "erc20_token.gen.go"}}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatJSON, &buf).Print(map[string]int{"contracts": 1}))
		assert.Equal(t, "{\"contracts\":1}\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable, &buf).Print(data))
		assert.Contains(t, buf.String(), "CONTRACT")
		assert.Contains(t, buf.String(), "erc20_token.gen.go")
	})

	t.Run("非表格数据退回 JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable, &buf).Print([]string{"a"}))
		assert.Equal(t, "[\n  \"a\"\n]\n", buf.String())
	})

	t.Run("静默", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewFormatter(FormatTable, &buf)
		f.SetSilent(true)
		require.NoError(t, f.Print(data))
		assert.Empty(t, buf.String())
	})
}

func TestFormatter_Messages(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var data, logs bytes.Buffer
	f := NewFormatter(FormatJSON, &data)
	f.SetLogWriter(&logs)

	f.PrintInfo("reading abis")
	f.PrintSuccess("generated 5 contracts")
	f.PrintWarning("index rebuilt")
	f.PrintError(errors.New("abi parse failed"))

	for _, want := range []string{"reading abis", "generated 5 contracts", "index rebuilt", "abi parse failed"} {
		assert.Contains(t, logs.String(), want)
	}
	assert.Empty(t, data.String())

	// 静默模式下只有错误输出
	logs.Reset()
	f.SetSilent(true)
	f.PrintSuccess("hidden")
	f.PrintError(errors.New("shown"))
	assert.NotContains(t, logs.String(), "hidden")
	assert.Contains(t, logs.String(), "shown")
}
