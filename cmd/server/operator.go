package main

import (
	"fmt"

	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/spf13/cobra"
)

func newOperatorCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage the operators allowed to use the admin API",
	}
	cmd.AddCommand(
		newOperatorAddCmd(opts),
		newOperatorSetRoleCmd(opts),
	)
	return cmd
}

func newOperatorAddCmd(opts *rootOptions) *cobra.Command {
	var (
		password string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add an operator with a password login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := operators.ParseRole(role)
			if err != nil {
				return err
			}
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ops, _, err := openOperators(cfg, logger)
			if err != nil {
				return err
			}

			op, err := ops.Create(args[0], password, parsedRole)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) as %s\n", op.Username, op.ID, op.Role)
			return err
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "initial password (8+ chars, mixed case and a digit)")
	cmd.Flags().StringVarP(&role, "role", "r", string(operators.RoleFree), "free, premium, vip or developer")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newOperatorSetRoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Change an operator's role, acting as the owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := operators.ParseRole(args[1])
			if err != nil {
				return err
			}
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ops, owner, err := openOperators(cfg, logger)
			if err != nil {
				return err
			}

			target, err := ops.GetByUsername(args[0])
			if err != nil {
				return err
			}
			updated, err := ops.SetRole(owner.ID, target.ID, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (bot limit %s)\n", updated.Username, updated.Role, limitText(updated.Role))
			return err
		},
	}
}

func limitText(role operators.Role) string {
	if role.Limit() == operators.Unlimited {
		return "unlimited"
	}
	return fmt.Sprint(role.Limit())
}
