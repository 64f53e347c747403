package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typequery/internal/connection"
	"typequery/internal/query"
)

// definesCmd lists function and method definitions for modules
var definesCmd = &cobra.Command{
	Use:   "defines [module]...",
	Short: "List function and method definitions in the given modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			if size := cfg.Query.BatchSize; size > 0 {
				return query.DefinesBatched(ctx, conn, args, size)
			}
			return query.Defines(ctx, conn, args)
		})
	},
}

// attributesCmd lists class attributes
var attributesCmd = &cobra.Command{
	Use:   "attributes [class]...",
	Short: "List the attributes of the given classes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			if size := cfg.Query.BatchSize; size > 0 {
				return query.GetAttributesBatched(ctx, conn, args, size)
			}
			return query.GetAttributes(ctx, conn, args)
		})
	},
}

// superclassesCmd shows the direct superclasses of one class
var superclassesCmd = &cobra.Command{
	Use:   "superclasses [class]",
	Short: "Show the direct superclasses of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			return query.GetSuperclasses(ctx, conn, args[0])
		})
	},
}

// hierarchyCmd dumps the whole class hierarchy with its reverse index
var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Dump the class hierarchy and its reverse index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			hierarchy, err := query.GetClassHierarchy(ctx, conn)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"hierarchy":         hierarchy.Hierarchy(),
				"reverse_hierarchy": hierarchy.ReverseHierarchy(),
			}, nil
		})
	},
}

// callGraphCmd dumps the whole-program call graph
var callGraphCmd = &cobra.Command{
	Use:   "call-graph",
	Short: "Dump the whole-program call graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			return query.GetCallGraph(ctx, conn)
		})
	},
}

// invalidModelsCmd validates taint models and reports failures
var invalidModelsCmd = &cobra.Command{
	Use:   "invalid-models",
	Short: "Validate taint models and report invalid ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd, func(ctx context.Context, conn connection.Connection) (any, error) {
			return query.GetInvalidTaintModels(ctx, conn)
		})
	},
}

// withConnection builds the configured connection, runs one operation
// under the configured timeout, and prints the result as indented JSON.
func withConnection(cmd *cobra.Command, run func(context.Context, connection.Connection) (any, error)) error {
	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(baseCtx, cfg.GetTimeout())
	defer cancel()

	conn := connection.NewSubprocess(cfg.Server.Binary, cfg.Server.Args, logger)
	logger.Debug("Running query",
		zap.String("command", cmd.Name()),
		zap.String("binary", cfg.Server.Binary),
		zap.Int("batch_size", cfg.Query.BatchSize))

	result, err := run(ctx, conn)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
