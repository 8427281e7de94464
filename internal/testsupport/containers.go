// containers.go
//
// A document authoring service that drafts and refines content with an LLM
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docauthor.
// docauthor is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docauthor is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docauthor.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testsupport

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const (
	testDatabase = "docauthor"
	testUser     = "docauthor"
	testPassword = "docauthor-pass"
)

// DBContainer is a running database container and the config that reaches it
type DBContainer struct {
	Container testcontainers.Container
	Config    *config.Config
}

type dbImage struct {
	image string
	port  string
	env   map[string]string
	// logged once by the init server and again by the real one
	ready string
}

var dbImages = map[string]dbImage{
	"postgres": {
		image: "postgres:17-alpine",
		port:  "5432",
		env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		ready: "database system is ready to accept connections",
	},
	"mariadb": {
		image: "mariadb:11",
		port:  "3306",
		env: map[string]string{
			"MARIADB_ROOT_PASSWORD": testPassword,
			"MARIADB_DATABASE":      testDatabase,
			"MARIADB_USER":          testUser,
			"MARIADB_PASSWORD":      testPassword,
		},
		ready: "ready for connections",
	},
}

// StartDB starts a postgres or mariadb container. DB_IMAGE overrides the image.
// t may be nil when called outside of a test.
func StartDB(ctx context.Context, t *testing.T, dbType string) (*DBContainer, error) {
	img, ok := dbImages[dbType]
	if !ok {
		return nil, fmt.Errorf("no container image for database type %s", dbType)
	}
	if image := os.Getenv("DB_IMAGE"); image != "" {
		img.image = image
	}

	tcpPort, err := nat.NewPort("tcp", img.port)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}

	logMessage(t, "Starting %s container from %s", dbType, img.image)
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        img.image,
			ExposedPorts: []string{string(tcpPort)},
			Env:          img.env,
			WaitingFor: wait.ForAll(
				wait.ForLog(img.ready).WithOccurrence(2),
				wait.ForListeningPort(tcpPort),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", dbType, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &DBContainer{
		Container: container,
		Config: &config.Config{
			DBType:            dbType,
			DBHost:            host,
			DBPort:            mapped.Port(),
			DBDatabase:        testDatabase,
			DBUser:            testUser,
			DBPassword:        testPassword,
			DBConnectionLimit: 5,
			LogLevel:          "warn",
		},
	}, nil
}

// Connect opens and migrates the container database, retrying while it settles
func (c *DBContainer) Connect(ctx context.Context) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 30; i++ {
		db, err = database.Connect(c.Config)
		if err == nil {
			sqlDB, _ := db.DB()
			if err = sqlDB.PingContext(ctx); err == nil {
				break
			}
			_ = database.Close(db)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("database not ready after 30 seconds: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// Terminate stops the container
func (c *DBContainer) Terminate(t *testing.T) {
	if c == nil || c.Container == nil {
		return
	}
	if err := c.Container.Terminate(context.Background()); err != nil {
		logMessage(t, "Failed to terminate %s: %v", c.Config.DBType, err)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
