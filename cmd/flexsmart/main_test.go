package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI 执行命令，返回退出码、标准输出与标准错误
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr}
	code := c.run(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestGenerate_Dir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "contracts")

	code, stdout, stderr := runCLI(t, "generate",
		"--config", filepath.Join(dir, "none.json"),
		"--abi-dir", filepath.Join("..", "..", "abis"),
		"--out", out,
		"-o", "json")
	require.Equal(t, 0, code, stderr)

	var report struct {
		Contracts []struct {
			Contract string `json:"contract"`
			File     string `json:"file"`
		} `json:"contracts"`
		Indexed []string `json:"indexed"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Len(t, report.Contracts, 5)
	assert.Contains(t, report.Indexed, "Erc20TokenAll")

	for _, c := range report.Contracts {
		_, err := os.Stat(filepath.Join(out, c.File))
		assert.NoError(t, err, c.File)
	}
	_, err := os.Stat(filepath.Join(out, "index.gen.go"))
	assert.NoError(t, err)
	assert.Contains(t, stderr, "已生成 5 个合约客户端")
}

func TestGenerate_SingleFileUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"out_dir":"`+filepath.ToSlash(filepath.Join(dir, "bindings"))+`","package":"bindings"}`), 0o644))

	code, stdout, stderr := runCLI(t, "generate", filepath.Join("..", "..", "abis", "Erc20Token.json"), "--config", cfgPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "erc20_token.gen.go")

	src, err := os.ReadFile(filepath.Join(dir, "bindings", "erc20_token.gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package bindings")
}

func TestGenerate_WarnsOnEmptyContract(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Marker.json")
	require.NoError(t, os.WriteFile(src, []byte(`[{"type":"event","name":"Ping","inputs":[],"anonymous":false}]`), 0o644))

	code, _, stderr := runCLI(t, "generate", src, "--out", filepath.Join(dir, "out"), "--config", filepath.Join(dir, "none.json"))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Marker 没有任何函数")
}

func TestGenerate_Failures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "Bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"abi":[{"type":"function","name":"x","inputs":[{"name":"a","type":"uint999"}]}]}`), 0o644))
	out := filepath.Join(dir, "out")
	cfg := filepath.Join(dir, "none.json")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ABI 非法", []string{"generate", bad, "--out", out, "--config", cfg}, "abi parse error"},
		{"目录为空", []string{"generate", "--abi-dir", t.TempDir(), "--out", out, "--config", cfg}, "no abi files"},
		{"参数过多", []string{"generate", bad, bad, "--config", cfg}, "accepts at most 1 arg"},
		{"输出格式非法", []string{"generate", "-o", "yaml", "--config", cfg}, "unknown output format"},
		{"日志级别非法", []string{"generate", "--log-level", "loud", "--config", cfg}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
		})
	}

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestAbis(t *testing.T) {
	code, stdout, stderr := runCLI(t, "abis", "-o", "json", "--config", filepath.Join(t.TempDir(), "none.json"))
	require.Equal(t, 0, code, stderr)

	var rows []abiRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 5)
	for _, r := range rows {
		assert.NotZero(t, r.Functions, r.Name)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flexsmart", "config.json")

	code, _, stderr := runCLI(t, "config", "init", "--config", path)
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(path)
	require.NoError(t, err)

	code, _, stderr = runCLI(t, "config", "init", "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--force")

	code, _, _ = runCLI(t, "config", "init", "--config", path, "--force")
	assert.Equal(t, 0, code)

	code, stdout, _ := runCLI(t, "config", "show", "--config", path, "-o", "json")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"package":"contracts"`)
}
