// Package main はアプリケーションのエントリーポイントを提供します
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"ZipScope/internal/domain/model"
	"ZipScope/internal/gui"
	"ZipScope/internal/infrastructure/config"
	"ZipScope/internal/infrastructure/filesystem"
	"ZipScope/internal/infrastructure/logging"
	"ZipScope/internal/infrastructure/metrics"
	"ZipScope/internal/interface/ui"
	"ZipScope/internal/usecase/archive"
	"ZipScope/internal/usecase/report"
	"ZipScope/internal/usecase/tree"
)

// 終了コード
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const (
	description = "ディレクトリをツリー表示し、同じ構成の zip アーカイブを作成します"
	usage       = "zipscope [-i <input>] [-o <output.zip>] [-method <method>] [-level <n>] [options]"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliFlags はコマンドラインフラグの値です
type cliFlags struct {
	input         string
	output        string
	depth         int
	ignoreHidden  bool
	readGitignore bool
	parent        bool
	method        string
	level         int
	dryRun        bool
	configFile    string
	metricsFile   string
	browse        bool
	saveAs        bool
	debug         bool
	quiet         bool
	noDigest      bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fls := flag.NewFlagSet("zipscope", flag.ContinueOnError)
	fls.SetOutput(stderr)
	fls.Usage = func() {
		fmt.Fprintf(stderr, "\nDescription:\n\n\t %s\n\n", description)
		fmt.Fprintf(stderr, "Usage: %s\n\n", usage)
		fls.PrintDefaults()
	}

	fls.StringVar(&f.input, "input", "", "アーカイブするルートディレクトリ（既定: カレントディレクトリ）")
	fls.StringVar(&f.input, "i", "", "-input の短縮形")
	fls.StringVar(&f.output, "output", "", "出力アーカイブのパス（既定: ./<入力フォルダ名>.zip）")
	fls.StringVar(&f.output, "o", "", "-output の短縮形")
	fls.IntVar(&f.depth, "depth", -1, "走査の最大深さ（負の値は無制限）")
	fls.IntVar(&f.depth, "d", -1, "-depth の短縮形")
	fls.BoolVar(&f.ignoreHidden, "ignore-hidden", false, "名前が . で始まる要素を除外する")
	fls.BoolVar(&f.readGitignore, "read-gitignore", false, ".zipignore に加えて .gitignore を読む")
	fls.BoolVar(&f.parent, "parent", false, "すべてのエントリを出力ファイル名のディレクトリで包む")
	fls.StringVar(&f.method, "method", string(model.DefaultMethod), "圧縮方式（stored|deflated|bzip2|zstd|lz4）")
	fls.IntVar(&f.level, "level", 0, "圧縮レベル（未指定ならコーデックの既定値）")
	fls.BoolVar(&f.dryRun, "dry-run", false, "ツリー表示のみ行い、アーカイブを作成しない")
	fls.StringVar(&f.configFile, "config", "", "設定ファイル（既定: <入力>/"+config.SettingsFileName+"）")
	fls.StringVar(&f.metricsFile, "metrics-file", "", "Prometheus テキスト形式でメトリクスを書き出すファイル")
	fls.BoolVar(&f.browse, "browse", false, "ダイアログで入力フォルダを選択する")
	fls.BoolVar(&f.saveAs, "save-as", false, "ダイアログで出力アーカイブを選択する")
	fls.BoolVar(&f.debug, "debug", false, "DEBUG 以上のログを出力する")
	fls.BoolVar(&f.quiet, "quiet", false, "ERROR のログのみ出力する")
	fls.BoolVar(&f.noDigest, "no-digest", false, "アーカイブのチェックサムを表示しない")
	return fls, f
}

// overrides は明示的に指定されたフラグだけを設定の上書きとして返します
func (f *cliFlags) overrides(fls *flag.FlagSet) config.Overrides {
	o := config.Overrides{ConfigFile: f.configFile}
	fls.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "input", "i":
			o.Input = &f.input
		case "output", "o":
			o.Output = &f.output
		case "depth", "d":
			o.MaxDepth = &f.depth
		case "ignore-hidden":
			o.IgnoreHidden = &f.ignoreHidden
		case "read-gitignore":
			o.ReadGitignore = &f.readGitignore
		case "parent":
			o.Parent = &f.parent
		case "method":
			o.Method = &f.method
		case "level":
			o.Level = &f.level
		case "dry-run":
			o.DryRun = &f.dryRun
		case "metrics-file":
			o.MetricsFile = &f.metricsFile
		case "no-digest":
			digest := !f.noDigest
			o.Digest = &digest
		}
	})
	return o
}

func (f *cliFlags) logLevel() string {
	switch {
	case f.debug:
		return logging.LevelDebug
	case f.quiet:
		return logging.LevelError
	}
	return logging.LevelWarn
}

// aborter は途中まで書いたアーカイブを閉じる操作です
type aborter interface {
	Abort() error
}

// abortAssembly はアーカイブの作成を中断します。クローズの失敗は WARN で記録します
func abortAssembly(a aborter, logger logging.Logger) {
	if err := a.Abort(); err != nil {
		logger.Log(logging.LevelWarn, "途中まで書いたアーカイブのクローズに失敗", err)
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	fls, f := newFlagSet(stderr)
	if err := fls.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fls.NArg() > 0 {
		fmt.Fprintf(stderr, "余分な引数があります: %v\n", fls.Args())
		fls.Usage()
		return exitUsage
	}

	logger := logging.NewLevelFilter(logging.NewJSONLogger(stderr), f.logLevel())
	fail := func(message string, err error) int {
		logger.Log(logging.LevelError, message, err)
		fmt.Fprintf(stderr, "エラー: %v\n", err)
		return exitError
	}

	validator := filesystem.NewWalker(logger, filesystem.Options{})
	o := f.overrides(fls)
	if f.browse {
		input, err := gui.NewDirectorySelector(validator).SelectDirectory("アーカイブするフォルダを選択")
		if err != nil {
			return fail("入力フォルダの選択に失敗", err)
		}
		o.Input = &input
	}

	settings, err := config.NewResolver().Resolve(o)
	if err != nil {
		return fail("設定の解決に失敗", err)
	}

	if f.saveAs && !settings.DryRun {
		output, err := ui.NewArchivePicker(validator).SelectArchive("保存先を選択", settings.Output)
		if err != nil {
			return fail("保存先の選択に失敗", err)
		}
		settings.Output = output
	}
	logger.Log(logging.LevelInfo, fmt.Sprintf("入力: %s, 出力: %s", settings.Input, settings.Output), nil)

	// フォルダ構造のスキャン
	walker := filesystem.NewWalker(logger, filesystem.OptionsFromSettings(settings))
	annotator := tree.NewAnnotator(settings.Input)
	if err := walker.Walk(context.Background(), settings.Input, annotator.Add); err != nil {
		return fail("フォルダ構造のスキャンに失敗", err)
	}
	entries := annotator.Entries()
	logger.Log(logging.LevelInfo, fmt.Sprintf("%d 件のエントリを検出しました", len(entries)), nil)

	generator := report.NewGenerator(stdout, logger)
	if err := generator.WriteTree(entries); err != nil {
		return fail("ツリーの出力に失敗", err)
	}
	if settings.DryRun {
		logger.Log(logging.LevelInfo, "dry-run のためアーカイブは作成しません", nil)
		return exitOK
	}

	// アーカイブの作成
	collector := metrics.NewCollector()
	assembler, err := archive.NewAssembler(settings, logger, collector)
	if err != nil {
		return fail("アーカイブの作成に失敗", err)
	}
	if err := assembler.Build(entries); err != nil {
		abortAssembly(assembler, logger)
		return fail("アーカイブへの書き込みに失敗", err)
	}
	summary, err := assembler.Finish()
	if err != nil {
		return fail("アーカイブの確定に失敗", err)
	}
	if err := generator.WriteSummary(summary); err != nil {
		return fail("件数の出力に失敗", err)
	}

	if settings.Digest {
		if _, err := generator.WriteDigest(settings.Output); err != nil {
			return fail("チェックサムの計算に失敗", err)
		}
	}
	if settings.MetricsFile != "" {
		if err := collector.WriteTextfile(settings.MetricsFile); err != nil {
			return fail("メトリクスの書き出しに失敗", err)
		}
	}

	logger.Log(logging.LevelInfo, "処理が完了しました", nil)
	return exitOK
}
