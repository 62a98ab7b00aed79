package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/store"
	"github.com/sells-group/xgrid/internal/worksheet"
)

var calcCmd = &cobra.Command{
	Use:   "calc <file>...",
	Short: "Calculate the average yarding distance and print the worksheet",
	Long: `Loads the given layers, resolves the grid layout, rasterizes every
polygon layer into the calculation area and aggregates the cell distances
to the landing. The landing is given either as a cell (--landing row,col)
or as a grid position (--landing-at x,y).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		landingFlag, _ := cmd.Flags().GetString("landing")
		landingAtFlag, _ := cmd.Flags().GetString("landing-at")
		panFlag, _ := cmd.Flags().GetString("pan")
		subtitle, _ := cmd.Flags().GetString("subtitle")
		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		save, _ := cmd.Flags().GetBool("save")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		if (landingFlag == "") == (landingAtFlag == "") {
			return eris.New("calc: exactly one of --landing and --landing-at is required")
		}
		pan, err := parseOffset(panFlag)
		if err != nil {
			return eris.Wrap(err, "calc: --pan")
		}

		layers, err := loadLayers(cmd, args)
		if err != nil {
			return err
		}
		s, upd, err := buildSession(layers, parseExclusions(exclude))
		if err != nil {
			return err
		}
		if err := upd.Resolution.Err(); err != nil {
			zap.L().Warn("calc: grid may clip the data", zap.String("layout", upd.Resolution.Config.String()))
		}
		s.SetPan(pan)

		if landingFlag != "" {
			cell, err := parseCell(landingFlag)
			if err != nil {
				return eris.Wrap(err, "calc: --landing")
			}
			if err := s.SelectLanding(cell.Row, cell.Col); err != nil {
				return err
			}
		} else {
			x, y, err := parsePoint(landingAtFlag)
			if err != nil {
				return eris.Wrap(err, "calc: --landing-at")
			}
			if _, err := s.SelectLandingAt(x, y); err != nil {
				return err
			}
		}

		res, err := s.Calculate()
		if err != nil {
			return err
		}
		sheet, err := worksheet.Assemble(res, worksheet.Options{
			Subtitle:         subtitle,
			ScaleDenominator: cfg.Worksheet.ScaleDenominator,
		})
		if err != nil {
			return err
		}

		if err := sheet.Encode(os.Stdout, format); err != nil {
			return err
		}
		if xlsxPath != "" {
			if err := sheet.WriteXLSX(xlsxPath); err != nil {
				return err
			}
			zap.L().Info("calc: worksheet written", zap.String("path", xlsxPath))
		}

		if !save {
			return nil
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		names := make([]string, len(layers))
		for i, l := range layers {
			names[i] = l.Name
		}
		run := &store.Run{
			Subtitle:      subtitle,
			Sources:       names,
			Layout:        s.Config(),
			Landing:       res.Landing,
			TotalDegree:   res.TotalDegree,
			FinalDistance: res.FinalDistance,
			Sheet:         sheet,
		}
		if err := st.SaveRun(ctx, run); err != nil {
			return eris.Wrap(err, "calc: save run")
		}
		_, _ = fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
		return nil
	},
}

func init() {
	calcCmd.Flags().String("landing", "", "landing cell as row,col (0-based, top-left origin)")
	calcCmd.Flags().String("landing-at", "", "landing position as x,y in grid screen units")
	calcCmd.Flags().String("pan", "", "offset of the data against the grid as dx,dy in screen units")
	calcCmd.Flags().String("subtitle", "", "subtitle prepended to the worksheet title")
	calcCmd.Flags().String("format", worksheet.FormatText, "output format (text, json, yaml)")
	calcCmd.Flags().String("xlsx", "", "also write the worksheet to this .xlsx file")
	calcCmd.Flags().Bool("save", false, "record the run in the history store")
	calcCmd.Flags().StringSlice("exclude", nil, "layer names left out of the calculation area")
	rootCmd.AddCommand(calcCmd)
}
