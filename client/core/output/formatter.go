// Package output 命令行输出：数据写 stdout（json / pretty / table），提示写 stderr
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Format 数据输出格式
type Format string

const (
	FormatJSON   Format = "json"   // 单行 JSON，便于脚本处理
	FormatPretty Format = "pretty" // 缩进 JSON
	FormatTable  Format = "table"  // 默认
)

// ParseFormat 空串按 table 处理
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatTable, nil
	}
	switch f := Format(s); f {
	case FormatJSON, FormatPretty, FormatTable:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (json|pretty|table)", s)
}

// Tabular 能以表格呈现的数据；其他数据在 table 格式下按 pretty 输出
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// Formatter 命令输出
type Formatter struct {
	format Format
	out    io.Writer
	notes  io.Writer
	silent bool
}

// NewFormatter out 为 nil 时写 stdout；提示默认写 stderr
func NewFormatter(format Format, out io.Writer) *Formatter {
	if out == nil {
		out = os.Stdout
	}
	return &Formatter{format: format, out: out, notes: os.Stderr}
}

// SetLogWriter 提示输出目标，nil 恢复为 stderr
func (f *Formatter) SetLogWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	f.notes = w
}

// SetSilent 静默时只保留错误提示
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 按格式输出数据
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}
	if t, ok := data.(Tabular); ok && f.format == FormatTable {
		rows := append(pterm.TableData{t.Header()}, t.Rows()...)
		if err := pterm.DefaultTable.WithHasHeader().WithWriter(f.out).WithData(rows).Render(); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
		return nil
	}

	var (
		b   []byte
		err error
	)
	if f.format == FormatJSON {
		b, err = json.Marshal(data)
	} else {
		b, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	b = append(b, '\n')
	if _, err := f.out.Write(b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// ===== 提示 =====

func (f *Formatter) note(p pterm.PrefixPrinter, msg string) {
	if f.silent {
		return
	}
	p.WithWriter(f.notes).Println(msg)
}

func (f *Formatter) PrintInfo(msg string)    { f.note(pterm.Info, msg) }
func (f *Formatter) PrintSuccess(msg string) { f.note(pterm.Success, msg) }
func (f *Formatter) PrintWarning(msg string) { f.note(pterm.Warning, msg) }

// PrintError 静默模式下同样输出
func (f *Formatter) PrintError(err error) {
	pterm.Error.WithWriter(f.notes).Println(err.Error())
}
