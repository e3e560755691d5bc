package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	schemabin "github.com/reoring/schemabin"
	"github.com/reoring/schemabin/i18n"
	"github.com/reoring/schemabin/jsonschema"
	"github.com/reoring/schemabin/schema"
)

// app holds the global flags shared by every subcommand.
type app struct {
	verbose    bool
	maxDepth   int
	duplicates string
	lang       string
	verify     bool
}

func (a *app) engine(cmd *cobra.Command) (*schemabin.Engine, error) {
	dup, ok := schemabin.ParseSeverity(a.duplicates)
	if !ok {
		return nil, fmt.Errorf("invalid --duplicates %q (want error, warn or ignore)", a.duplicates)
	}
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	i18n.SetLanguage(a.lang)
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return schemabin.New(
		schemabin.WithLogger(logger),
		schemabin.WithMaxDepth(a.maxDepth),
		schemabin.WithDuplicateKeys(dup),
		schemabin.WithVerifyOnDecode(a.verify),
	), nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "schemabin",
		Short: "Validate and serialize JSON values against a schema",
		Long: `schemabin converts JSON-like values into a compact schema-keyed binary
stream and back, checking them against a JSON-Schema-style definition.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().IntVar(&a.maxDepth, "max-depth", schemabin.DefaultMaxDepth, "Maximum container nesting")
	rootCmd.PersistentFlags().StringVar(&a.duplicates, "duplicates", "error", "Duplicate key policy: error, warn or ignore")
	rootCmd.PersistentFlags().StringVar(&a.lang, "lang", "en", "Language for error sentences (en, ja)")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newInspectCmd(),
		newExportCmd(a),
	)
	return rootCmd
}

// dataFlags selects where value input comes from and how it is parsed.
type dataFlags struct {
	schemaPath string
	in         string
	format     string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.schemaPath, "schema", "s", "", "Schema file (.json, .yaml, optionally .gz or .zst)")
	cmd.Flags().StringVarP(&f.in, "in", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&f.format, "format", "f", "json", "Input format: json, text or yaml")
	_ = cmd.MarkFlagRequired("schema")
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// load reads the schema file and the input value.
func (f *dataFlags) load(ctx context.Context, cmd *cobra.Command, e *schemabin.Engine) (*schemabin.Schema, schemabin.Value, error) {
	s, err := e.LoadSchemaFile(ctx, f.schemaPath)
	if err != nil {
		return nil, schemabin.Value{}, err
	}
	data, err := readInput(cmd, f.in)
	if err != nil {
		return nil, schemabin.Value{}, err
	}
	var v schemabin.Value
	switch f.format {
	case "json":
		v, err = e.DecodeJSON(ctx, schemabin.JSONBytes(data))
	case "text":
		v, err = e.ParseValue(ctx, string(data))
	case "yaml":
		v, err = e.ParseValueYAML(ctx, data)
	default:
		err = fmt.Errorf("unknown --format %q (want json, text or yaml)", f.format)
	}
	if err != nil {
		return nil, schemabin.Value{}, err
	}
	return s, v, nil
}

func newValidateCmd(a *app) *cobra.Command {
	var f dataFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a value against a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, v, err := f.load(ctx, cmd, e)
			if err != nil {
				return err
			}
			if err := e.Validate(ctx, s, v); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEncodeCmd(a *app) *cobra.Command {
	var (
		f   dataFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Validate a value and write its binary stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, v, err := f.load(ctx, cmd, e)
			if err != nil {
				return err
			}
			if out == "-" {
				w := bufio.NewWriter(cmd.OutOrStdout())
				if _, err := e.SerializeTo(ctx, w, s, v); err != nil {
					return err
				}
				return w.Flush()
			}
			data, err := e.Serialize(ctx, s, v)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file, - for stdout")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		schemaPath string
		in         string
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Read a binary stream and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.LoadSchemaFile(ctx, schemaPath)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			v, err := e.Deserialize(ctx, s, data)
			if err != nil {
				return err
			}
			return printValue(cmd, v)
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Schema file")
	cmd.Flags().StringVarP(&in, "in", "i", "-", "Input stream, - for stdin")
	cmd.Flags().BoolVar(&a.verify, "verify", false, "Validate the decoded value against the schema")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <stream>",
		Short: "Print the key id and content of a stream without a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := schemabin.PeekKeyID(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key id: %d\nsize:   %d bytes\n", id, len(data))

			// An untyped schema routes nothing and accepts every record.
			untyped := schema.Any()
			untyped.KeyID = id
			e := schemabin.New()
			defer e.Close()
			v, err := e.Deserialize(cmd.Context(), untyped, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "type:   %s\nvalue:  ", v.Type())
			return printValue(cmd, v)
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a schema file as a normalized JSON Schema document",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.LoadSchemaFile(cmd.Context(), schemaPath)
			if err != nil {
				return err
			}
			b, err := jsonschema.MarshalIndent(s.JSONSchema())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Schema file")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func printValue(cmd *cobra.Command, v schemabin.Value) error {
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
