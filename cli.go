package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/catalog/seed"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/storage"
)

func (a *app) seedCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog and demo accounts into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			// Seeding only touches users and purchases, never device storage.
			authSvc := auth.NewService(db, storage.NewMemory(), auth.NewIssuer(a.cfg.JWTSecret, a.cfg.SessionTTL), a.log)
			return a.seedCatalog(cmd.Context(), db, authSvc, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing products with the seed dataset")
	return cmd
}

// searchCmd runs the catalog query engine over the embedded dataset, which
// makes it usable without a database.
func (a *app) searchCmd() *cobra.Command {
	var (
		q           = catalog.NewQuery()
		types       []string
		levels      []string
		sort        string
		suggestOnly bool
	)
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the seed catalog and print matches as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := seed.Load()
			if err != nil {
				return err
			}
			cat := catalog.NewStatic(ds.Products(), ds.Categories)
			if len(args) == 1 {
				q.Text = strings.TrimSpace(args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if suggestOnly {
				return enc.Encode(cat.Suggest(q.Text))
			}

			for _, t := range types {
				kind, err := models.ParseKind(t)
				if err != nil {
					return err
				}
				q.Types = append(q.Types, kind)
			}
			for _, l := range levels {
				q.Difficulties = append(q.Difficulties, models.Level(l))
			}
			if q.Sort, err = catalog.ParseSortKey(sort); err != nil {
				return err
			}

			results := cat.Search(q)
			a.log.Debug("🔍 search", zap.Any("query", q), zap.Int("matches", len(results)))
			return enc.Encode(map[string]any{"results": results, "total": len(results)})
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&q.Categories, "category", nil, "category filter, repeatable")
	f.StringSliceVar(&types, "type", nil, "course or book, repeatable")
	f.StringSliceVar(&levels, "difficulty", nil, "Beginner, Intermediate or Advanced, repeatable")
	f.Float64Var(&q.MinPrice, "min-price", catalog.DefaultMinPrice, "minimum price")
	f.Float64Var(&q.MaxPrice, "max-price", catalog.DefaultMaxPrice, "maximum price")
	f.Float64Var(&q.MinRating, "min-rating", 0, "minimum rating")
	f.StringVar(&sort, "sort", string(catalog.SortRelevance), "relevance, popular, rating, price-low, price-high or newest")
	f.BoolVar(&suggestOnly, "suggest", false, "print autocomplete suggestions for the text instead")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		out      string
		fromSeed bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var products []models.Product
			if fromSeed {
				ds, err := seed.Load()
				if err != nil {
					return err
				}
				products = ds.Products()
			} else {
				db, err := a.openDatabase()
				if err != nil {
					return err
				}
				if products, err = catalog.NewRepository(db).Products(cmd.Context()); err != nil {
					return err
				}
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := catalog.WriteWorkbook(f, products); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.log.Info("📦 Catalog exported", zap.String("file", out), zap.Int("products", len(products)))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "products.xlsx", "output workbook path")
	cmd.Flags().BoolVar(&fromSeed, "seed", false, "export the embedded seed dataset instead of the database")
	return cmd
}
