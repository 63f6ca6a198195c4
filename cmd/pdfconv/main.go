// Command pdfconv runs the PDF transforms of the conversion API on local files.
//
//	pdfconv info report.pdf
//	pdfconv split -ranges "1-3;4-6" -o parts report.pdf
//	pdfconv rotate -angle 90 -pages 1,3 report.pdf
//	pdfconv merge -o all.pdf a.pdf b.pdf
//	pdfconv images -format jpg -dpi 100 -o pages report.pdf
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/drummonds/gopdfapi/engine/pagerange"
	"github.com/drummonds/gopdfapi/engine/pdfops"
	"github.com/drummonds/gopdfapi/engine/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

const usage = `usage: pdfconv <command> [flags] <files>

commands:
  info       print page count, page size and metadata as JSON
  text       print the text of every page
  split      write one PDF per page range (-ranges "1-3;5")
  rotate     rotate pages (-angle 90|180|270, -pages)
  merge      concatenate PDFs in order
  compress   rewrite with object streams
  encrypt    protect with a password (-user, -owner, -no-print, -no-copy, -no-modify)
  decrypt    remove a password (-password)
  watermark  stamp text on every page (-text, -opacity, -size, -rotation, -position)
  images     render pages as png or jpg (-format, -dpi, -pages, -renderer)
`

var errUsage = errors.New("invalid usage")

func main() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pdfops.Logger = Logger
	pdfrenderer.Logger = Logger

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "pdfconv:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, args := args[0], args[1:]
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("o", "", "output file or directory")

	engine := pdfops.New()

	switch command {
	case "info":
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		info, err := engine.Info(data)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)

	case "text":
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		result, err := engine.ExtractText(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, result.Text)
		return err

	case "split":
		ranges := fs.String("ranges", "", "page ranges separated by ';', e.g. \"1-3;4,6\"")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		parts, err := engine.Split(data, pdfops.SplitRequest{PageRanges: splitRanges(*ranges)})
		if err != nil {
			return err
		}
		dir := *output
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		base := baseName(fs.Arg(0))
		for i, part := range parts {
			if err := writeOutput(stdout, filepath.Join(dir, fmt.Sprintf("%s-part-%d.pdf", base, i+1)), part); err != nil {
				return err
			}
		}
		return nil

	case "rotate":
		angle := fs.String("angle", "90", "90, 180 or 270")
		pages := fs.String("pages", pagerange.All, "page range")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		out, err := engine.Rotate(data, pdfops.RotateRequest{Angle: *angle, Pages: *pages})
		if err != nil {
			return err
		}
		return writeOutput(stdout, outputName(*output, fs.Arg(0), "-rotated"), out)

	case "merge":
		if err := fs.Parse(args); err != nil {
			return err
		}
		docs := make([][]byte, fs.NArg())
		for i, name := range fs.Args() {
			data, err := os.ReadFile(name)
			if err != nil {
				return err
			}
			docs[i] = data
		}
		out, err := engine.Merge(docs)
		if err != nil {
			return err
		}
		name := *output
		if name == "" {
			name = "merged.pdf"
		}
		return writeOutput(stdout, name, out)

	case "compress":
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		out, err := engine.Compress(data)
		if err != nil {
			return err
		}
		return writeOutput(stdout, outputName(*output, fs.Arg(0), "-compressed"), out)

	case "encrypt":
		user := fs.String("user", "", "user password")
		owner := fs.String("owner", "", "owner password, defaults to the user password")
		noPrint := fs.Bool("no-print", false, "deny printing")
		noCopy := fs.Bool("no-copy", false, "deny copying")
		noModify := fs.Bool("no-modify", false, "deny modification")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		printAllowed, copyAllowed, modify := !*noPrint, !*noCopy, !*noModify
		out, err := engine.Encrypt(data, pdfops.EncryptRequest{
			UserPassword:  *user,
			OwnerPassword: *owner,
			Permissions:   &pdfops.Permissions{Print: &printAllowed, Copy: &copyAllowed, Modify: &modify},
		})
		if err != nil {
			return err
		}
		return writeOutput(stdout, outputName(*output, fs.Arg(0), "-encrypted"), out)

	case "decrypt":
		password := fs.String("password", "", "user or owner password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		out, err := engine.Decrypt(data, *password)
		if err != nil {
			return err
		}
		return writeOutput(stdout, outputName(*output, fs.Arg(0), "-decrypted"), out)

	case "watermark":
		text := fs.String("text", "", "watermark text")
		opacity := fs.Float64("opacity", pdfops.DefaultWatermarkOpacity, "0 to 1")
		size := fs.Float64("size", pdfops.DefaultWatermarkFontSize, "font size in points")
		rotation := fs.Float64("rotation", pdfops.DefaultWatermarkRotation, "degrees")
		position := fs.String("position", pdfops.PositionCenter, "center, top, bottom or diagonal")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		out, err := engine.Watermark(data, pdfops.WatermarkRequest{
			Text: *text,
			Options: &pdfops.WatermarkOptions{
				Opacity:  opacity,
				FontSize: size,
				Rotation: rotation,
				Position: *position,
			},
		})
		if err != nil {
			return err
		}
		return writeOutput(stdout, outputName(*output, fs.Arg(0), "-watermarked"), out)

	case "images":
		format := fs.String("format", pdfrenderer.FormatPNG, "png or jpg")
		dpi := fs.Int("dpi", pdfrenderer.DefaultDPI, "resolution")
		pages := fs.String("pages", pagerange.All, "page range")
		backend := fs.String("renderer", pdfrenderer.BackendPDFium, "pdfium or fitz")
		if err := fs.Parse(args); err != nil {
			return err
		}
		data, err := readSingle(fs)
		if err != nil {
			return err
		}
		return renderImages(stdout, data, baseName(fs.Arg(0)), *output, *format, *dpi, *pages, *backend)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func renderImages(stdout io.Writer, data []byte, base, dir, format string, dpi int, pages, backend string) error {
	format, err := pdfrenderer.ParseFormat(format)
	if err != nil {
		return err
	}
	r, err := pdfrenderer.New(backend)
	if err != nil {
		return err
	}
	defer r.Close()

	total, err := r.PageCount(data)
	if err != nil {
		return err
	}
	indices, err := pagerange.Selection(pages, total)
	if err != nil {
		return err
	}
	images, err := r.RenderPages(data, indices, dpi)
	if err != nil {
		return err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, img := range images {
		name := filepath.Join(dir, fmt.Sprintf("%s-page-%d.%s", base, indices[i]+1, format))
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := pdfrenderer.Encode(f, img, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func readSingle(fs *flag.FlagSet) ([]byte, error) {
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("%w: %s takes exactly one input file", errUsage, fs.Name())
	}
	return os.ReadFile(fs.Arg(0))
}

// splitRanges separates range expressions with ';' since ',' belongs to the expression
func splitRanges(s string) []string {
	var ranges []string
	for _, r := range strings.Split(s, ";") {
		if r = strings.TrimSpace(r); r != "" {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func outputName(output, input, suffix string) string {
	if output != "" {
		return output
	}
	return filepath.Join(filepath.Dir(input), baseName(input)+suffix+".pdf")
}

func writeOutput(stdout io.Writer, name string, data []byte) error {
	if err := os.WriteFile(name, data, 0644); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "%s (%s)\n", name, humanize.Bytes(uint64(len(data))))
	return err
}
