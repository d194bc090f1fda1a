// Package html2tex converts HTML (or Markdown) documents into right-to-left,
// Arabic-first LaTeX and compiles them to PDF with XeLaTeX.
//
// # Quick Start
//
// Create a converter and convert a file:
//
//	conv, err := html2tex.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := conv.ConvertFile(ctx, "article.html", "out/article.tex", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.PDFPath)
//
// Use Input.SkipCompile (or the skipCompile argument) to stop after the .tex
// file is written.
//
// # Conversion Pipeline
//
//  1. Input decoding (charset detection) or Markdown rendering via Goldmark
//  2. Lenient HTML parsing; only the <body> is converted
//  3. Tag dispatch: each element maps to a LaTeX rule, text is escaped,
//     emoji become cached Twemoji images, images are copied into images/
//  4. Document assembly: fixed polyglossia/fontspec preamble plus the
//     optional packages the body asked for (listings, soul, mdframed)
//  5. Validation of the RTL setup and of the document skeleton
//  6. Image optimization and compilation with retries and automatic repairs
//
// A failing element never aborts a conversion: its subtree is dropped, the
// error is logged and the rest of the document is kept. Tables are replaced
// by a placeholder.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := html2tex.NewConverter(
//	    html2tex.WithTimeout(2 * time.Minute),
//	    html2tex.WithMainFont("Noto Naskh Arabic"),
//	    html2tex.WithImageQuality(75),
//	    html2tex.WithLogger(logrus.StandardLogger()),
//	)
//
// # TeX Requirements
//
// Compilation needs xelatex with the polyglossia, fontspec and bidi packages
// and an Arabic font (Amiri by default). Run "html2tex doctor" to check.
package html2tex
