package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/mylibrary/internal/client"
)

const EnvPassword = "MYLIBRARY_PASSWORD"

// readPassword returns flagValue, then the env var, then a line from in.
func readPassword(flagValue string, in io.Reader, prompt io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(EnvPassword); v != "" {
		return v, nil
	}
	fmt.Fprint(prompt, "Mot de passe: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

type RegisterCommand struct {
	clientOptions
	Username string
	Email    string
	Password string
}

func NewRegisterCommand() *RegisterCommand {
	return &RegisterCommand{}
}

func (cmd *RegisterCommand) ParseFlags(args []string) error {
	fs := newFlagSet("register", "register -username NAME -email ADDRESS [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Username, "username", "", "Account name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, prompted when empty (env "+EnvPassword+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" || cmd.Email == "" {
		fs.Usage()
		return fmt.Errorf("username and email are required")
	}
	return nil
}

func (cmd *RegisterCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd.Password, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	res, err := c.Register(ctx, cmd.Username, cmd.Email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "Bienvenue %s ! Compte créé.\n", res.User.Username)
	return nil
}

type LoginCommand struct {
	clientOptions
	Login    string
	Password string
}

func NewLoginCommand() *LoginCommand {
	return &LoginCommand{}
}

func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := newFlagSet("login", "login -login NAME_OR_EMAIL [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Login, "login", "", "Username or email (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, prompted when empty (env "+EnvPassword+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Login == "" {
		fs.Usage()
		return fmt.Errorf("login is required")
	}
	return nil
}

func (cmd *LoginCommand) Run() error {
	c, prefs, err := cmd.open()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd.Password, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	res, err := c.Login(ctx, cmd.Login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "Connecté en tant que %s (session enregistrée dans %s)\n", res.User.Username, prefs.Path())
	return nil
}

type LogoutCommand struct {
	clientOptions
}

func NewLogoutCommand() *LogoutCommand {
	return &LogoutCommand{}
}

func (cmd *LogoutCommand) ParseFlags(args []string) error {
	fs := newFlagSet("logout", "logout [options]")
	cmd.register(fs)
	return fs.Parse(args)
}

func (cmd *LogoutCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	// The local session is gone even if the server could not be reached
	if err := c.Logout(ctx); err != nil && !errors.Is(err, client.ErrNotLoggedIn) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	fmt.Fprintln(cmd.writer(), "Déconnecté.")
	return nil
}

type ProfileCommand struct {
	clientOptions
	Username string
	Email    string
}

func NewProfileCommand() *ProfileCommand {
	return &ProfileCommand{}
}

func (cmd *ProfileCommand) ParseFlags(args []string) error {
	fs := newFlagSet("profile", "profile [-username NAME] [-email ADDRESS] [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Username, "username", "", "New account name")
	fs.StringVar(&cmd.Email, "email", "", "New email address")
	return fs.Parse(args)
}

func (cmd *ProfileCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var username, email *string
	if cmd.Username != "" {
		username = &cmd.Username
	}
	if cmd.Email != "" {
		email = &cmd.Email
	}

	if username == nil && email == nil {
		profile, err := c.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.writer(), "%s <%s>\n", profile.Username, profile.Email)
		return nil
	}

	profile, err := c.UpdateProfile(ctx, username, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "Profil mis à jour: %s <%s>\n", profile.Username, profile.Email)
	return nil
}

type PasswordCommand struct {
	clientOptions
	Current string
	New     string
}

func NewPasswordCommand() *PasswordCommand {
	return &PasswordCommand{}
}

func (cmd *PasswordCommand) ParseFlags(args []string) error {
	fs := newFlagSet("password", "password -current OLD -new NEW [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Current, "current", "", "Current password (required)")
	fs.StringVar(&cmd.New, "new", "", "New password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Current == "" || cmd.New == "" {
		fs.Usage()
		return fmt.Errorf("current and new passwords are required")
	}
	return nil
}

func (cmd *PasswordCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	msg, err := c.ChangePassword(ctx, cmd.Current, cmd.New)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.writer(), msg)
	return nil
}

type DeleteAccountCommand struct {
	clientOptions
	Password string
	Confirm  bool
}

func NewDeleteAccountCommand() *DeleteAccountCommand {
	return &DeleteAccountCommand{}
}

func (cmd *DeleteAccountCommand) ParseFlags(args []string) error {
	fs := newFlagSet("delete-account", "delete-account -confirm [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Password, "password", "", "Password, prompted when empty (env "+EnvPassword+")")
	fs.BoolVar(&cmd.Confirm, "confirm", false, "Confirm the deletion of the account and all its books")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmd.Confirm {
		fs.Usage()
		return fmt.Errorf("-confirm is required, this removes every book of the account")
	}
	return nil
}

func (cmd *DeleteAccountCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd.Password, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	msg, err := c.DeleteAccount(ctx, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.writer(), msg)
	return nil
}
