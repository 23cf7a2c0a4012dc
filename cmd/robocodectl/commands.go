package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/jhoicas/robocode-api/internal/application/dto"
	"github.com/jhoicas/robocode-api/internal/domain"
	"github.com/jhoicas/robocode-api/internal/domain/entity"
	"github.com/jhoicas/robocode-api/pkg/config"
	pkgjwt "github.com/jhoicas/robocode-api/pkg/jwt"
)

// CounterService operaciones que usa la CLI. Lo implementa *counter.Service.
type CounterService interface {
	EnsureSchema(ctx context.Context) error
	Next(ctx context.Context, category string) (*entity.IssuedCode, error)
	Get(ctx context.Context, category string) (*dto.CounterResponse, error)
	List(ctx context.Context, limit, offset int) (*dto.CounterListResponse, error)
}

// ServiceFactory abre el servicio contra la base de datos configurada.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (CounterService, func(), error)

var errNotFound = errors.New("categoría sin códigos asignados")

func newRootCmd(cfg *config.Config, open ServiceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:          "robocodectl",
		Short:        "Administración de contadores de códigos de robot",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	// withService abre el servicio para un comando y garantiza el cierre.
	withService := func(cmd *cobra.Command, fn func(svc CounterService) error) error {
		svc, closeFn, err := open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("conectar a PostgreSQL: %w", err)
		}
		defer closeFn()
		return fn(svc)
	}

	root.AddCommand(
		newSchemaCmd(withService),
		newNextCmd(withService),
		newShowCmd(withService),
		newListCmd(withService),
		newTokenCmd(cfg),
	)
	return root
}

type serviceRunner func(cmd *cobra.Command, fn func(svc CounterService) error) error

func newSchemaCmd(run serviceRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Crea la tabla counters si no existe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(svc CounterService) error {
				if err := svc.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "esquema listo")
				return nil
			})
		},
	}
}

func newNextCmd(run serviceRunner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "next <categoría>",
		Short: "Asigna el siguiente código de una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc CounterService) error {
				issued, err := svc.Next(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				if asJSON {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(dto.GenerateCodeResponse{Code: issued.Code})
				}
				fmt.Fprintln(cmd.OutOrStdout(), issued.Code)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida JSON como la de /generate_code")
	return cmd
}

func newShowCmd(run serviceRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <categoría>",
		Short: "Muestra el conteo actual sin incrementarlo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc CounterService) error {
				out, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				if out == nil {
					return fmt.Errorf("%q: %w", args[0], errNotFound)
				}
				printCounters(cmd, []dto.CounterResponse{*out})
				return nil
			})
		},
	}
}

func newListCmd(run serviceRunner) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista los contadores ordenados por categoría",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(svc CounterService) error {
				out, err := svc.List(cmd.Context(), limit, offset)
				if err != nil {
					return describe(err)
				}
				printCounters(cmd, out.Items)
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d de %d contadores\n", len(out.Items), out.Page.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "máximo de filas")
	cmd.Flags().IntVar(&offset, "offset", 0, "filas a saltar")
	return cmd
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var subject, role string
	var minutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para la API de administración",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET no configurado")
			}
			tok, err := pkgjwt.Generate(cfg.JWT.Secret, subject, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "robocodectl", "subject del token")
	cmd.Flags().StringVar(&role, "role", pkgjwt.RoleAdmin, "rol del token")
	cmd.Flags().IntVar(&minutes, "minutes", cfg.JWT.Expiration, "vigencia en minutos")
	return cmd
}

func printCounters(cmd *cobra.Command, items []dto.CounterResponse) {
	tbl := table.New("CATEGORÍA", "CONTEO", "ÚLTIMO CÓDIGO").WithWriter(cmd.OutOrStdout()).WithPadding(2)
	for _, it := range items {
		tbl.AddRow(it.Category, strconv.FormatInt(it.Count, 10), it.LastCode)
	}
	tbl.Print()
}

// describe traduce los errores de dominio a mensajes de operador.
func describe(err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Errorf("entrada inválida: %s", vErr.Reason)
	}
	if kind := domain.StoreErrorKind(err); kind != "" {
		return fmt.Errorf("almacén (%s): %w", kind, err)
	}
	return err
}
