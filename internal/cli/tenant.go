package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"auditdna/internal/db/repository"
	"auditdna/internal/domain"
	"auditdna/internal/tenant"
)

func newTenantCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(newTenantCreateCmd(envFile))
	return cmd
}

func newTenantCreateCmd(envFile *string) *cobra.Command {
	var (
		company    string
		adminEmail string
		domainName string
		plan       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new tenant with its admin user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if company == "" {
				return fmt.Errorf("--company is required")
			}
			if adminEmail == "" {
				return fmt.Errorf("--email is required")
			}

			password, err := promptPassword()
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			writeDB, readDB, err := openControl(cfg)
			if err != nil {
				return err
			}
			defer writeDB.Close() //nolint:errcheck
			defer readDB.Close()  //nolint:errcheck

			tenants := repository.NewTenantRepo(writeDB, readDB)
			registry := tenant.NewRegistry(tenants, cfg.DataDir, logger)
			defer registry.Close() //nolint:errcheck
			provisioner := tenant.NewProvisioner(tenants, registry, cfg.BaseDomain, logger)

			res, err := provisioner.CreateTenant(cmd.Context(), domain.CreateTenantParams{
				CompanyName: company,
				Domain:      domainName,
				Plan:        plan,
				AdminUser: domain.AdminUserSpec{
					Email:    adminEmail,
					Password: password,
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant created\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  ID:        %s\n", res.TenantID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Domain:    %s\n", res.Domain)
			fmt.Fprintf(cmd.OutOrStdout(), "  Admin:     %s\n", adminEmail)
			fmt.Fprintf(cmd.OutOrStdout(), "  Login URL: %s\n", res.AdminLoginURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name (required)")
	cmd.Flags().StringVar(&adminEmail, "email", "", "admin user email (required)")
	cmd.Flags().StringVar(&domainName, "domain", "", "custom domain")
	cmd.Flags().StringVar(&plan, "plan", "", "subscription plan")
	return cmd
}

// promptPassword reads the admin password twice from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Admin password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
