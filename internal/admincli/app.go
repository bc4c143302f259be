// Package admincli implements onboardctl, the operator tool for managing
// accounts directly in the configured store.
package admincli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/netx"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/config"
	"github.com/dmitrijs2005/onboardkit/internal/server/objectstore"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboardkit/internal/server/services"
	"github.com/urfave/cli/v2"
)

// Seams for tests.
var (
	loadConfig           = func() (*config.Config, error) { return config.LoadConfig(nil) }
	newRepositoryManager = repomanager.New
	newObjectStore       = func(cfg *config.Config) objectstore.Store { return objectstore.NewS3Presigner(cfg) }
	uploadClient         = http.DefaultClient
)

// NewApp builds the command tree. Output goes to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "onboardctl",
		Usage:     "Manage onboarding accounts",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "storage",
				Usage: "storage backend (mongo, postgres, memory); defaults to STORAGE_TYPE",
			},
			&cli.StringFlag{
				Name:    "mongo-uri",
				Aliases: []string{"m"},
				Usage:   "MongoDB connection string",
			},
			&cli.StringFlag{
				Name:    "database-dsn",
				Aliases: []string{"d"},
				Usage:   "PostgreSQL connection string",
			},
		},
		Commands: []*cli.Command{
			createUserCmd(),
			uploadAttachmentCmd(),
		},
	}
}

// configFromContext loads the server configuration and applies the global
// storage overrides.
func configFromContext(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if v := c.String("storage"); v != "" {
		cfg.StorageType = v
	}
	if v := c.String("mongo-uri"); v != "" {
		cfg.MongoURI = v
	}
	if v := c.String("database-dsn"); v != "" {
		cfg.DatabaseDSN = v
	}
	return cfg, nil
}

func createUserCmd() *cli.Command {
	var email string
	var password string
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create an account, or reset the password of an existing one",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "account email",
				Destination: &email,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "password",
				Aliases:     []string{"p"},
				Usage:       "account password (read from the terminal when omitted)",
				Destination: &password,
			},
		},
		Action: func(c *cli.Context) error {
			out := c.App.Writer

			if password == "" {
				pw, err := GetPassword(out)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = pw
			}

			cfg, err := configFromContext(c)
			if err != nil {
				return err
			}

			return createUser(c.Context, cfg, out, email, password)
		},
	}
}

func createUser(ctx context.Context, cfg *config.Config, out io.Writer, email, password string) error {
	m, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer m.Close(context.Background())

	logger := logging.NewNopLogger()
	us := services.NewUserService(m, auth.NewHasher(auth.DefaultHashCost),
		auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL), auth.NewAdminList(cfg.AdminEmails), logger)

	created, err := us.CreateOrResetUser(ctx, email, password)
	if err != nil {
		return err
	}

	normalized := auth.NormalizeEmail(email)
	if created {
		fmt.Fprintf(out, "Created user %s\n", normalized)
	} else {
		fmt.Fprintf(out, "Reset password for %s\n", normalized)
	}

	if us.IsAdmin(normalized) {
		fmt.Fprintf(out, "%s is on the admin allow-list\n", normalized)
	} else {
		fmt.Fprintf(out, "%s is not on the admin allow-list (set ADMIN_EMAILS to grant admin access)\n", normalized)
	}
	return nil
}

func uploadAttachmentCmd() *cli.Command {
	var resourceID, file, contentType string
	return &cli.Command{
		Name:  "upload-attachment",
		Usage: "Upload a file as an attachment of an existing resource",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "resource-id",
				Aliases:     []string{"r"},
				Usage:       "id of the resource",
				Destination: &resourceID,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path of the file to upload",
				Destination: &file,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "content-type",
				Usage:       "media type sent with the upload",
				Value:       netx.DefaultContentType,
				Destination: &contentType,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := configFromContext(c)
			if err != nil {
				return err
			}
			return uploadAttachment(c.Context, cfg, c.App.Writer, resourceID, file, contentType)
		},
	}
}

func uploadAttachment(ctx context.Context, cfg *config.Config, out io.Writer, resourceID, file, contentType string) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	m, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer m.Close(context.Background())

	rs := services.NewResourceService(m, newObjectStore(cfg), logging.NewNopLogger())
	up, err := rs.PresignUpload(ctx, resourceID)
	if err != nil {
		return err
	}

	if err := netx.PutPresigned(ctx, uploadClient, up.URL, contentType, body); err != nil {
		return err
	}

	fmt.Fprintf(out, "Uploaded %s (%d bytes) as %s\n", file, len(body), up.Key)
	return nil
}
