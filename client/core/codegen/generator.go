// Package codegen 离线生成类型化合约客户端
//
// 生成器读取一批 ABI 文件，为每个合约输出一个 Go 源文件（<snake>.gen.go），
// 并重写 index.gen.go 登记输出目录中全部已生成的合约。
// 函数分类与运行时的类型化客户端共用 abi.Plan，两者不会出现行为差异。
//
// 执行顺序：
//  1. 解析全部 ABI 文件，任何一个失败即中止，不写任何文件
//  2. 渲染并格式化全部源文件
//  3. 写入临时文件后逐个重命名到位
package codegen

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/flexsmart/sdk/client/core/abi"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

const (
	// ModulePath 生成代码引用的 SDK 模块路径
	ModulePath = "github.com/flexsmart/sdk"

	// IndexFile 索引文件名
	IndexFile = "index.gen.go"

	generatedSuffix = ".gen.go"
)

var (
	// ErrAbiParse ABI 文件解析失败
	ErrAbiParse = errors.New("abi parse error")

	// ErrNoAbiFiles 没有可用的 ABI 文件
	ErrNoAbiFiles = errors.New("no abi files")
)

// AbiParseError 某个 ABI 文件解析失败，整批生成中止
type AbiParseError struct {
	Path  string
	Cause error
}

func (e *AbiParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAbiParse, e.Path, e.Cause)
}

// Is 同时匹配 ErrAbiParse
func (e *AbiParseError) Is(target error) bool {
	return target == ErrAbiParse
}

func (e *AbiParseError) Unwrap() error {
	return e.Cause
}

// Config 生成配置
type Config struct {
	OutDir  string
	Package string
}

// Generated 单个合约的生成结果
type Generated struct {
	Contract   string       `json:"contract"`
	TypeName   string       `json:"type_name"`
	File       string       `json:"file"`
	Operations int          `json:"operations"`
	Features   abi.Features `json:"features"`
}

// Report 一次生成的结果
type Report struct {
	Contracts []Generated `json:"contracts"`
	Index     string      `json:"index"`
	// Indexed 索引中登记的全部类型（含之前生成的）
	Indexed []string `json:"indexed"`
}

// Header 表头
func (r *Report) Header() []string {
	return []string{"CONTRACT", "TYPE", "FILE", "OPERATIONS", "FEATURES"}
}

// Rows 每个生成的合约一行
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Contracts))
	for _, c := range r.Contracts {
		rows = append(rows, []string{c.Contract, c.TypeName, c.File, strconv.Itoa(c.Operations), c.Features.String()})
	}
	return rows
}

// Option 生成器选项
type Option func(*Generator)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator 代码生成器
type Generator struct {
	cfg    Config
	logger logInterface.Logger
}

// New 创建生成器
func New(cfg Config, opts ...Option) *Generator {
	if cfg.Package == "" {
		cfg.Package = "contracts"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = cfg.Package
	}
	g := &Generator{
		cfg:    cfg,
		logger: logimpl.NewModuleLogger(logimpl.GetLogger(), "codegen"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateDir 为目录下全部 *.json ABI 文件生成客户端
func (g *Generator) GenerateDir(ctx context.Context, abiDir string) (*Report, error) {
	paths, err := filepath.Glob(filepath.Join(abiDir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAbiFiles, abiDir)
	}
	sort.Strings(paths)
	return g.GenerateFiles(ctx, paths...)
}

// GenerateFiles 为指定的 ABI 文件生成客户端
func (g *Generator) GenerateFiles(ctx context.Context, paths ...string) (*Report, error) {
	if len(paths) == 0 {
		return nil, ErrNoAbiFiles
	}

	// 1. 解析
	artifacts, err := parseAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	// 2. 渲染
	files := make(map[string][]byte, len(artifacts)+1)
	report := &Report{}
	for _, a := range artifacts {
		src, gen, err := g.renderContract(a)
		if err != nil {
			return nil, err
		}
		if _, dup := files[gen.File]; dup {
			return nil, fmt.Errorf("duplicate contract %s", gen.Contract)
		}
		files[gen.File] = src
		report.Contracts = append(report.Contracts, gen)
	}

	types, err := g.indexedTypes(report.Contracts)
	if err != nil {
		return nil, err
	}
	index, err := g.renderIndex(types)
	if err != nil {
		return nil, err
	}
	files[IndexFile] = index
	report.Indexed = types
	report.Index = filepath.Join(g.cfg.OutDir, IndexFile)

	// 3. 写入
	if err := writeStaged(g.cfg.OutDir, files); err != nil {
		return nil, err
	}
	for _, c := range report.Contracts {
		g.logger.Infof("合约客户端已生成 contract=%s file=%s operations=%d", c.Contract, c.File, c.Operations)
	}
	return report, nil
}

// parseAll 并发解析全部文件，报告按输入顺序第一个失败的文件
func parseAll(ctx context.Context, paths []string) ([]*abi.Artifact, error) {
	artifacts := make([]*abi.Artifact, len(paths))
	errs := make([]error, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			a, err := abi.LoadArtifact(path)
			if err != nil {
				errs[i] = &AbiParseError{Path: path, Cause: err}
				return nil
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

// renderContract 渲染单个合约
func (g *Generator) renderContract(a *abi.Artifact) ([]byte, Generated, error) {
	typeName := exportName(a.ContractName)
	model := contractModel{
		Header:   generatedHeader,
		Marker:   contractMarker,
		Package:  g.cfg.Package,
		Contract: a.ContractName,
		TypeName: typeName,
	}
	features := abi.DetectFeatures(a.ABI)
	model.Features.Mintable = features.Mintable
	model.Features.Burnable = features.Burnable
	model.Features.Pausable = features.Pausable

	var usesAddress, usesBig, usesWrite bool
	usedMethods := make(map[string]bool)
	for k := range reservedMethods {
		usedMethods[k] = true
	}

	plan := abi.Plan(a.ABI)
	for _, op := range plan {
		m := methodModel{
			Name:        uniqueName(exportName(op.Key), usedMethods),
			Key:         op.Key,
			Signature:   op.Signature(),
			Kind:        op.Kind.String(),
			Read:        op.IsRead(),
			Format:      op.FormatOutput,
			AmountIndex: op.AmountIndex,
		}

		usedParams := map[string]bool{}
		for i, in := range op.Inputs {
			typ := GoType(in.Type)
			if !m.Read && i == op.AmountIndex {
				typ = "string"
			}
			m.Params = append(m.Params, paramModel{Name: uniqueName(paramName(in.Name, i), usedParams), Type: typ})
		}

		if m.Read {
			m.ReturnType = readReturnType(op)
			m.Direct = m.ReturnType == "interface{}"
		} else {
			m.ReturnType = "*transport.Receipt"
			usesWrite = true
		}

		for _, t := range append(paramTypes(m.Params), m.ReturnType) {
			usesAddress = usesAddress || strings.Contains(t, "common.")
			usesBig = usesBig || strings.Contains(t, "big.")
		}
		model.Methods = append(model.Methods, m)
	}

	model.Imports = []string{"context", ModulePath + "/client/core/contract", ModulePath + "/client/core/typed"}
	if usesWrite {
		model.Imports = append(model.Imports, ModulePath+"/client/core/transport")
	}
	if usesAddress {
		model.Imports = append(model.Imports, "github.com/ethereum/go-ethereum/common")
	}
	if usesBig {
		model.Imports = append(model.Imports, "math/big")
	}
	sort.Strings(model.Imports)

	var buf bytes.Buffer
	if err := contractTemplate.Execute(&buf, model); err != nil {
		return nil, Generated{}, fmt.Errorf("render %s: %w", a.ContractName, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, Generated{}, fmt.Errorf("format %s: %w", a.ContractName, err)
	}

	return src, Generated{
		Contract:   a.ContractName,
		TypeName:   typeName,
		File:       snakeCase(a.ContractName) + generatedSuffix,
		Operations: len(plan),
		Features:   features,
	}, nil
}

// readReturnType 只读操作的返回类型
//
// 单个输出：需要格式化的整数为 string，其余按类型映射；多个输出为 []interface{}。
func readReturnType(op abi.Operation) string {
	if len(op.Outputs) != 1 {
		return "[]interface{}"
	}
	out := op.Outputs[0]
	if op.FormatOutput && abi.IsIntegerType(out.Type) {
		return "string"
	}
	return GoType(out.Type)
}

func paramTypes(params []paramModel) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// indexedTypes 本批生成的类型加上输出目录中已有的生成文件
func (g *Generator) indexedTypes(batch []Generated) ([]string, error) {
	seen := make(map[string]bool)
	batchFiles := make(map[string]bool)
	for _, c := range batch {
		seen[c.TypeName] = true
		batchFiles[c.File] = true
	}

	existing, err := filepath.Glob(filepath.Join(g.cfg.OutDir, "*"+generatedSuffix))
	if err != nil {
		return nil, err
	}
	for _, path := range existing {
		base := filepath.Base(path)
		if base == IndexFile || batchFiles[base] {
			continue
		}
		name, ok, err := readContractMarker(path)
		if err != nil {
			return nil, err
		}
		if ok {
			seen[exportName(name)] = true
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

// readContractMarker 读取生成文件头部的合约名标记
func readContractMarker(path string) (string, bool, error) {
	//nolint:gosec // G304: 路径来自输出目录扫描
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; i < 5 && scanner.Scan(); i++ {
		line := scanner.Text()
		if strings.HasPrefix(line, contractMarker) {
			return strings.TrimSpace(strings.TrimPrefix(line, contractMarker)), true, nil
		}
	}
	return "", false, scanner.Err()
}

func (g *Generator) renderIndex(types []string) ([]byte, error) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexModel{
		Header:         generatedHeader,
		Package:        g.cfg.Package,
		ContractImport: ModulePath + "/client/core/contract",
		TypedImport:    ModulePath + "/client/core/typed",
		Types:          types,
	})
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return format.Source(buf.Bytes())
}

// writeStaged 先写入全部临时文件，再逐个重命名
func writeStaged(dir string, files map[string][]byte) error {
	//nolint:gosec // G301: 生成代码目录需要用户可读
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	staged := make(map[string]string, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for name, src := range files {
		tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", name, err)
		}
		staged[name] = tmp.Name()
		_, werr := tmp.Write(src)
		cerr := tmp.Close()
		if err := errors.Join(werr, cerr); err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", name, err)
		}
		//nolint:gosec // G302: 生成的源码文件需要用户可读
		if err := os.Chmod(tmp.Name(), 0644); err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}

	names := make([]string, 0, len(staged))
	for name := range staged {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.Rename(staged[name], filepath.Join(dir, name)); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", name, err)
		}
		delete(staged, name)
	}
	return nil
}
