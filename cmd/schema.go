package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/anigrab/anigrab/checkpoint"
	"github.com/anigrab/anigrab/queue"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("queue", "q", false, "Generate the JSON Schema of the pending-downloads queue")
}

// schemaCmd prints the JSON schemas of the files shared with the download manager.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for checkpoint and queue files",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "entry", "checkpoint", "linkresult":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("queue")):
			schema = reflector.Reflect([]queue.Entry{})
		default:
			schema = reflector.Reflect(&checkpoint.Checkpoint{})
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
