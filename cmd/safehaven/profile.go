package main

import (
	"context"
	"fmt"

	"github.com/chzyer/readline"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

var (
	profileCmd = &coral.Command{
		Use:   "profile",
		Short: "Manage the profiles",
	}

	profileCreateCmd = &coral.Command{
		Use:   "create USER_ID",
		Short: "Create a profile with its duress password",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			password, err := readline.Password("Password: ")
			if err != nil {
				return errors.Wrap(err, "could not read password from stdin")
			}

			duress, err := readline.Password("Duress password: ")
			if err != nil {
				return errors.Wrap(err, "could not read duress password from stdin")
			}

			a, err := bootstrap(konf)
			if err != nil {
				return err
			}
			defer a.Close()

			profile, err := a.auth.CreateProfile(context.Background(), args[0], string(password), string(duress))
			if err != nil {
				return err
			}

			fmt.Printf("Profile %s created\n", profile.UserID)
			return nil
		},
	}
)
