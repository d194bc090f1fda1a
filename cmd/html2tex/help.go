package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2tex <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert HTML or Markdown to Arabic LaTeX and PDF (default)")
	fmt.Fprintln(w, "  doctor     Check the TeX engine, fonts and LaTeX packages")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'html2tex help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2tex [convert] <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert HTML or Markdown files to right-to-left Arabic LaTeX, then")
	fmt.Fprintln(w, "compile them to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .html, .htm, .md or .markdown file, or a directory of them")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -i, --input <path>        Input file or directory (instead of the argument)")
	fmt.Fprintln(w, "  -o, --output <path>       Output .tex file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --max-workers <n>     Parallel conversions for directories")
	fmt.Fprintln(w, "      --memory-limit <mb>   Soft memory limit in MB")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --font <name>         Arabic main font (default Amiri)")
	fmt.Fprintln(w, "      --no-emoji            Do not download emoji images")
	fmt.Fprintln(w, "      --image-quality <n>   JPEG quality for optimized images (1-100)")
	fmt.Fprintln(w, "      --no-optimize         Leave downloaded images untouched")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compilation:")
	fmt.Fprintln(w, "      --no-compile          Write the .tex file only")
	fmt.Fprintln(w, "      --engine <name>       TeX engine: xelatex, lualatex")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-attempt compile timeout (e.g., 90s, 5m)")
	fmt.Fprintln(w, "      --keep-aux            Keep auxiliary engine files")
	fmt.Fprintln(w, "      --shell-escape        Pass -shell-escape to the engine")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <level>   debug, info, warning, error")
	fmt.Fprintln(w, "      --no-log-file         Do not write <output>.conversion.log")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  HTML2TEX_CONFIG, HTML2TEX_OUTPUT_DIR, HTML2TEX_FONT, HTML2TEX_ENGINE,")
	fmt.Fprintln(w, "  HTML2TEX_TIMEOUT, HTML2TEX_WORKERS, HTML2TEX_LOG_LEVEL")
	fmt.Fprintln(w, "  Precedence: flags > environment > config file > defaults")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  html2tex article.html")
	fmt.Fprintln(w, "  html2tex notes.md --no-compile -o build/")
	fmt.Fprintln(w, "  html2tex ./pages -o ./out -w 4 --font \"Noto Naskh Arabic\"")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2tex doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the TeX engine, Arabic fonts and LaTeX packages are installed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Machine-readable output")
	fmt.Fprintln(w, "      --engine <name>       Engine to check (default xelatex)")
	fmt.Fprintln(w, "      --font <name>         Main font to check (default Amiri)")
}

// runHelp prints help for a command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: html2tex version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: html2tex help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
