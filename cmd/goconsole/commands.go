package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/access"
	"github.com/MrEthical07/goConsole/guard"
	"github.com/MrEthical07/goConsole/internal/devauthority"
	consolejwt "github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/session"
)

// Exit code for a check that did not allow access.
const exitDenied = 3

func loginCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Username or email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password; read from stdin when omitted",
				EnvVars: []string{"GOCONSOLE_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			password := c.String("password")
			if password == "" {
				line, err := bufio.NewReader(e.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			u, err := console.Login(c.Context, goConsole.Credentials{
				Identifier: c.String("username"),
				Secret:     password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Signed in as %s (%s)\n", displayName(u), u.Role)
			return nil
		},
	}
}

func logoutCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and clear the stored session",
		Action: func(c *cli.Context) error {
			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			if err := console.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Signed out")
			return nil
		},
	}
}

func refreshCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Renew the stored access token",
		Action: func(c *cli.Context) error {
			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			if err := console.Refresh(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Session renewed")
			return nil
		},
	}
}

func statusCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored session without contacting the authority",
		Action: func(c *cli.Context) error {
			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			snap := console.Snapshot()
			if !snap.Authenticated() {
				fmt.Fprintln(e.out, "Signed out")
				return nil
			}

			u := snap.User
			fmt.Fprintf(e.out, "User:        %s (id %d)\n", displayName(u), u.ID)
			fmt.Fprintf(e.out, "Role:        %s\n", u.Role)
			if u.Unit != nil {
				fmt.Fprintf(e.out, "Unit:        %s\n", u.Unit.Name)
			}
			fmt.Fprintf(e.out, "Permissions: %s\n", strings.Join(u.Permissions.Tokens(), ", "))

			nav := console.VisibleItems(c.Context, access.DefaultNavigation())
			labels := make([]string, 0, len(nav))
			for _, item := range nav {
				labels = append(labels, item.Label)
			}
			fmt.Fprintf(e.out, "Navigation:  %s\n", strings.Join(labels, ", "))

			info, err := console.AccessTokenInfo(c.Context)
			switch {
			case errors.Is(err, consolejwt.ErrNotJWT):
			case err != nil:
				return err
			case info.ExpiresAt.IsZero():
				fmt.Fprintln(e.out, "Token:       no expiry")
			case info.Expired(time.Now()):
				fmt.Fprintf(e.out, "Token:       expired at %s\n", info.ExpiresAt.Format(time.RFC3339))
			default:
				fmt.Fprintf(e.out, "Token:       expires at %s\n", info.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func checkCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Decide whether the stored session meets a requirement",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "permission", Usage: "Required permission token"},
			&cli.StringFlag{Name: "role", Usage: "Required role"},
		},
		Action: func(c *cli.Context) error {
			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			d := guard.Decide(c.Context, console, guard.Requirement{
				Permission: c.String("permission"),
				Role:       session.Role(strings.ToUpper(c.String("role"))),
			})
			switch d.Outcome {
			case guard.OutcomeAllow:
				fmt.Fprintln(e.out, "allow")
				return nil
			case guard.OutcomeEntry:
				return cli.Exit("entry: sign in first", exitDenied)
			default:
				return cli.Exit(d.Outcome.String()+": "+d.Reason(), exitDenied)
			}
		},
	}
}

func profileCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Reload the current user from the authority and print it",
		Action: func(c *cli.Context) error {
			console, release, err := e.openConsole(c.Context)
			if err != nil {
				return err
			}
			defer release()

			u, err := console.ReloadProfile(c.Context)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(e.out)
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		},
	}
}

func devAuthorityCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dev-authority",
		Usage: "Serve an in-memory authority with the stock accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address; overrides dev_authority.addr",
			},
		},
		Action: func(c *cli.Context) error {
			dc := e.cfg.DevAuthority
			addr := dc.Addr
			if v := c.String("addr"); v != "" {
				addr = v
			}

			ac := devauthority.Config{
				AccessTTL:        dc.AccessTTL,
				RefreshTTL:       dc.RefreshTTL,
				Secret:           []byte(dc.Secret),
				Issuer:           dc.Issuer,
				Logger:           e.logger,
				MaxLoginAttempts: dc.MaxLoginAttempts,
				LoginCooldown:    dc.LoginCooldown,
			}
			if dc.RedisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: dc.RedisAddr})
				defer rdb.Close()
				ac.Redis = rdb
			}

			authority, err := devauthority.New(ac)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e.logger.Info("dev authority accounts", zap.Strings("usernames", authority.Usernames()))
			fmt.Fprintf(e.out, "Dev authority on http://%s/api (password: <username>-password)\n", addr)
			return authority.ListenAndServe(ctx, addr)
		},
	}
}

func displayName(u *session.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
