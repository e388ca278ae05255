package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var decodeIndent bool

var decodeCmd = &cobra.Command{
	Use:   "decode [query]",
	Short: "Decode a query string to JSON",
	Long: `Decode a query string into a JSON object. Records become objects and
every value stays a string; sequences are not split because the query
carries no schema.

The query is read from the argument or from stdin. A full URL is
accepted and only its query part is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		var v map[string]any
		if err := codec.UnmarshalString(q, &v); err != nil {
			return err
		}
		if v == nil {
			v = map[string]any{}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		if decodeIndent {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode [json]",
	Short: "Encode a JSON object as a query string",
	Long: `Encode a JSON object as a query string. Objects nest with dots, arrays
of scalars are comma-joined, null is omitted and object keys are sorted.

The JSON is read from the argument or from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) > 0 {
			data = []byte(args[0])
		} else {
			var err error
			if data, err = readStdin(cmd); err != nil {
				return err
			}
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v map[string]any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("parse JSON: %w", err)
		}
		if v == nil {
			return fmt.Errorf("parse JSON: top level value must be an object")
		}

		s, err := codec.MarshalString(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
		return err
	},
}

func init() {
	decodeCmd.Flags().BoolVarP(&decodeIndent, "indent", "i", false, "indent the JSON output")
}
