package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/music"
	"github.com/spf13/cobra"
)

var eqCmd = &cobra.Command{
	Use:   "eq",
	Short: "Inspect and edit the saved equalizer profile",
}

var eqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadEqualizer(cmd)
		if err != nil {
			return err
		}
		printFilters(cmd.OutOrStdout(), svc.Filters())
		return nil
	},
}

var eqAddCmd = &cobra.Command{
	Use:   "add <type> <frequency> <gain> <q>",
	Short: "Add a filter and save the profile",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadEqualizer(cmd)
		if err != nil {
			return err
		}
		f := music.NewEQFilter()
		f.Kind = music.ParseFilterKind(args[0])
		values := make([]float64, 3)
		for i, raw := range args[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q: %w", raw, err)
			}
			values[i] = v
		}
		f.Frequency, f.Gain, f.Q = values[0], values[1], values[2]

		added, err := svc.Add(f)
		if err != nil {
			return err
		}
		if err := svc.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", added.ID)
		return nil
	},
}

var eqRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a filter and save the profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadEqualizer(cmd)
		if err != nil {
			return err
		}
		if err := svc.Delete(args[0]); err != nil {
			return err
		}
		return svc.Save(cmd.Context())
	},
}

var eqPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the gain staging of the saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadEqualizer(cmd)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), svc.Plan())
		return nil
	},
}

func init() {
	eqCmd.AddCommand(eqListCmd, eqAddCmd, eqRemoveCmd, eqPlanCmd)
	rootCmd.AddCommand(eqCmd)
}

func loadEqualizer(cmd *cobra.Command) (*equalizer.Service, error) {
	cfgManager, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newEqualizer(cmd.Context(), cfgManager), nil
}

func printFilters(w io.Writer, filters []music.EQFilter) {
	if len(filters) == 0 {
		fmt.Fprintln(w, "no filters")
		return
	}
	for _, f := range filters {
		fmt.Fprintf(w, "%s  %-10s %8.1f Hz %+6.1f dB  q=%.2f\n", f.ID, f.TypeName(), f.Frequency, f.Gain, f.Q)
	}
}

func printPlan(w io.Writer, plan equalizer.GainPlan) {
	for _, st := range plan.Stages {
		fmt.Fprintf(w, "%s  %-10s %8.1f Hz  %+6.1f dB  x%.4f\n", st.FilterID, st.Type, st.Frequency, st.ScaledDB, st.LinearGain)
	}
	for _, sk := range plan.Skipped {
		fmt.Fprintf(w, "%s  skipped (%s)\n", sk.FilterID, sk.Reason)
	}
	fmt.Fprintf(w, "max gain x%.4f, preamp %.4f, master level %.4f\n", plan.MaxLinearGain, plan.Preamp, plan.MasterLevel)
}
