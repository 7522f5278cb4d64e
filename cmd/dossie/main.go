// Command dossie evaluates a dossier of OCR text files from the command line:
// each argument is one document's recognized text, in submission order.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/brl"
	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/extract"
	"github.com/correspondente/dossie-engine/internal/metrics"
	"github.com/correspondente/dossie-engine/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dossie",
		Short:         "Avalia dossiês de crédito habitacional a partir de texto OCR",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAvaliarCmd())
	return root
}

func newAvaliarCmd() *cobra.Command {
	var (
		referencia string
		categorias []string
		asJSON     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "avaliar <arquivo.txt> [arquivo.txt...]",
		Short: "Extrai campos, consolida o perfil e calcula o enquadramento",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			ref := time.Time{}
			if referencia != "" {
				t, ok := brl.ParseDate(referencia)
				if !ok {
					return fmt.Errorf("data de referência inválida: %q (use dd/mm/aaaa)", referencia)
				}
				ref = t
			}
			if len(categorias) > 0 && len(categorias) != len(args) {
				return fmt.Errorf("--categoria deve ser informado uma vez por arquivo (%d arquivos, %d categorias)", len(args), len(categorias))
			}

			documents := make([]pipeline.Document, 0, len(args))
			for i, path := range args {
				if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]; !ok {
					return fmt.Errorf("%s: extensão não suportada (esperado texto OCR .txt)", path)
				}
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("ler %s: %w", path, err)
				}
				declared := constants.Unknown
				if len(categorias) > 0 && categorias[i] != "" {
					cat, ok := constants.Canonicalize(categorias[i])
					if !ok {
						return fmt.Errorf("categoria desconhecida: %q", categorias[i])
					}
					declared = cat
				}
				documents = append(documents, pipeline.Document{
					Source:   filepath.Base(path),
					Declared: declared,
					Content:  pipeline.StaticText(raw),
				})
			}

			extractor, err := extract.NewExtractor(logger)
			if err != nil {
				return err
			}
			processor := pipeline.NewProcessor(logger, pipeline.Config{}, extractor, docs.DefaultPolicies(), metrics.New())

			profile, decision, err := processor.ProcessDossier(cmd.Context(), uuid.New(), documents, ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"profile": profile, "decision": decision})
			}

			name := "(nome não identificado)"
			if profile.FullName != nil {
				name = *profile.FullName
			}
			fmt.Fprintf(out, "Comprador: %s\n", name)
			if profile.CPF != nil {
				fmt.Fprintf(out, "CPF: %s\n", *profile.CPF)
			}
			fmt.Fprintln(out, decision.Summary())
			for _, nc := range decision.NonConformities {
				fmt.Fprintf(out, "  [%s] %s\n", nc.Code, nc.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&referencia, "referencia", "", "data de referência dd/mm/aaaa (padrão: hoje)")
	cmd.Flags().StringSliceVar(&categorias, "categoria", nil, "categoria declarada por arquivo, na mesma ordem")
	cmd.Flags().BoolVar(&asJSON, "json", false, "imprime perfil e decisão em JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "logs detalhados de extração")
	return cmd
}
