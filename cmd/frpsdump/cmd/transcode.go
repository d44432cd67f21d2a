package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fastrpc-go/frps"
)

var transcodeFormat string

var transcodeCmd = &cobra.Command{
	Use:   "transcode [file]",
	Short: "re-encode an envelope as JSON or MessagePack",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		checkErr(err)
		m, err := frps.Unmarshal(data)
		checkErr(err)

		doc := map[string]any{
			"version": fmt.Sprintf("%d.%d", m.Major, m.Minor),
			"kind":    m.Kind.String(),
		}
		switch m.Kind {
		case frps.MessageCall:
			doc["method"] = m.Method
		case frps.MessageFault:
			doc["faultCode"] = m.FaultCode
			doc["faultString"] = m.FaultString
		}
		if m.Kind != frps.MessageFault {
			values := make([]any, len(m.Values))
			for i := range m.Values {
				values[i] = m.Values[i].Interface()
			}
			doc["values"] = values
		}
		if len(m.Data) > 0 {
			doc["data"] = m.Data
		}

		switch transcodeFormat {
		case "json":
			out, err := json.MarshalIndent(doc, "", "  ")
			checkErr(err)
			fmt.Println(string(out))
		case "msgpack":
			out, err := msgpack.Marshal(doc)
			checkErr(err)
			_, err = os.Stdout.Write(out)
			checkErr(err)
		default:
			bailf("unknown format: %s", transcodeFormat)
		}
	},
}

func init() {
	transcodeCmd.PersistentFlags().StringVar(&transcodeFormat, "format", "json",
		"output format (json or msgpack)")
	rootCmd.AddCommand(transcodeCmd)
}
