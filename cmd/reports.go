package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"medscan/internal/config"
	"medscan/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List and manage stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owner's reports, newest first",
	Example: `  medscan reports list --owner jane@example.com
  medscan reports list --owner jane@example.com --query anemia`,
	RunE: runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a report's transcript and summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsRenameCmd = &cobra.Command{
	Use:   "rename [id] [title]",
	Short: "Change a report's title",
	Args:  cobra.ExactArgs(2),
	RunE:  runReportsRename,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a report permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDelete,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsRenameCmd, reportsDeleteCmd)

	reportsListCmd.Flags().String("owner", "", "Owner identity (default: MEDSCAN_OWNER)")
	reportsListCmd.Flags().String("query", "", "Filter titles containing this text")
	reportsShowCmd.Flags().StringP("pdf", "p", "", "Also write the report's PDF artifact to this path")
}

func openStore() (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening report store: %w", err)
	}
	return st, cfg, nil
}

func runReportsList(cmd *cobra.Command, args []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	query, _ := cmd.Flags().GetString("query")

	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if owner == "" {
		owner = cfg.DefaultOwner
	}
	if owner == "" {
		return fmt.Errorf("no owner identity: pass --owner or set MEDSCAN_OWNER")
	}

	reports, err := st.List(context.Background(), owner, query)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No reports found.")
		return nil
	}

	for _, r := range reports {
		fmt.Printf("%s  %s  %2d page(s)  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.PageCount, r.Title)
	}
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	pdfPath, _ := cmd.Flags().GetString("pdf")

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Title:   %s\n", r.Title)
	fmt.Printf("Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Pages:   %d\n", r.PageCount)
	fmt.Printf("Owner:   %s\n", r.OwnerEmail)
	if r.Summary != "" {
		fmt.Printf("\nSummary:\n%s\n", r.Summary)
	}
	if strings.TrimSpace(r.OCRText) != "" {
		fmt.Printf("\nTranscript:\n%s\n", r.OCRText)
	}

	if pdfPath != "" {
		if len(r.PDF) == 0 {
			return fmt.Errorf("report %s has no PDF artifact", r.ID)
		}
		if err := os.WriteFile(pdfPath, r.PDF, 0644); err != nil {
			return fmt.Errorf("writing artifact to %s: %w", pdfPath, err)
		}
		fmt.Printf("\nArtifact written to %s\n", pdfPath)
	}
	return nil
}

func runReportsRename(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpdateTitle(context.Background(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Report %s renamed to %q\n", args[0], args[1])
	return nil
}

func runReportsDelete(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Report %s deleted\n", args[0])
	return nil
}
