package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fastrpc-go/frps"
)

var dumpMaxDepth int

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "list the decode events of an envelope with byte offsets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		checkErr(err)
		p := &eventPrinter{}
		d := frps.NewDecoder(p, frps.DefaultConfig().WithMaxDepth(dumpMaxDepth))
		p.dec = d
		if _, _, err := d.Feed(data); err != nil {
			bailf("decode failed: %v", err)
		}
		checkErr(d.EndOfInput())
	},
}

func init() {
	dumpCmd.PersistentFlags().IntVar(&dumpMaxDepth, "max-depth", frps.DefaultMaxDepth,
		"container nesting limit")
	rootCmd.AddCommand(dumpCmd)
}

var (
	kindColor   = color.New(color.FgCyan)
	methodColor = color.New(color.FgGreen)
	faultColor  = color.New(color.FgRed)
)

// eventPrinter lists decode events one per line, prefixed with the byte
// offset at which the event completed.
type eventPrinter struct {
	dec    *frps.Decoder
	indent int
	buf    []byte
}

func (p *eventPrinter) printf(format string, args ...interface{}) {
	fmt.Printf("%d: %s%s\n", p.dec.Offset(),
		strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

// preview renders bulk payloads for display, eliding long ones.
func preview(p []byte) string {
	const max = 64
	if len(p) <= max {
		return strconv.Quote(string(p))
	}
	return strconv.Quote(string(p[:max])) + fmt.Sprintf("... (%d bytes)", len(p))
}

func (p *eventPrinter) Version(major, minor byte) error {
	p.printf("%s %d.%d", kindColor.Sprint("version"), major, minor)
	return nil
}

func (p *eventPrinter) MethodCall(name []byte) error {
	p.printf("%s %s", kindColor.Sprint("call"), methodColor.Sprint(string(name)))
	return nil
}

func (p *eventPrinter) MethodResponse() error {
	p.printf("%s", kindColor.Sprint("response"))
	return nil
}

func (p *eventPrinter) Fault(code int64, message []byte) error {
	p.indent = 0
	p.printf("%s %d %s", faultColor.Sprint("fault"), code, preview(message))
	return nil
}

func (p *eventPrinter) OpenStruct(members int) error {
	p.printf("%s (%d members)", kindColor.Sprint("struct"), members)
	p.indent++
	return nil
}

func (p *eventPrinter) StructKey(key []byte) error {
	p.printf("key %s", strconv.Quote(string(key)))
	return nil
}

func (p *eventPrinter) CloseStruct() error {
	p.indent--
	p.printf("%s", kindColor.Sprint("end struct"))
	return nil
}

func (p *eventPrinter) OpenArray(items int) error {
	p.printf("%s (%d items)", kindColor.Sprint("array"), items)
	p.indent++
	return nil
}

func (p *eventPrinter) CloseArray() error {
	p.indent--
	p.printf("%s", kindColor.Sprint("end array"))
	return nil
}

func (p *eventPrinter) Int(v int64) error {
	p.printf("int %d", v)
	return nil
}

func (p *eventPrinter) Bool(v bool) error {
	p.printf("bool %v", v)
	return nil
}

func (p *eventPrinter) Double(v float64) error {
	p.printf("double %g", v)
	return nil
}

func (p *eventPrinter) Null() error {
	p.printf("null")
	return nil
}

func (p *eventPrinter) DateTime(v frps.DateTime) error {
	p.printf("datetime %s (unix %d)", v.Time().Format("2006-01-02 15:04:05 -0700"), v.Unix)
	return nil
}

func (p *eventPrinter) StringChunk(b []byte) error {
	p.buf = append(p.buf, b...)
	return nil
}

func (p *eventPrinter) StringEnd() error {
	p.printf("string %s", preview(p.buf))
	p.buf = p.buf[:0]
	return nil
}

func (p *eventPrinter) BinaryChunk(b []byte) error {
	p.buf = append(p.buf, b...)
	return nil
}

func (p *eventPrinter) BinaryEnd() error {
	p.printf("binary %s", preview(p.buf))
	p.buf = p.buf[:0]
	return nil
}

func (p *eventPrinter) DataChunk(b []byte) error {
	p.buf = append(p.buf, b...)
	return nil
}

func (p *eventPrinter) DataEnd() error {
	p.printf("%s %s", kindColor.Sprint("data"), preview(p.buf))
	p.buf = p.buf[:0]
	return nil
}
