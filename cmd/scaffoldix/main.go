// Copyright 2024 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abcxyz/pkg/logging"

	"github.com/marcusPrado02/scaffoldix-sub001/internal/cli"
	"github.com/marcusPrado02/scaffoldix-sub001/internal/scaffolderr"
)

const (
	defaultLogLevel  = logging.LevelWarning
	defaultLogFormat = logging.FormatText
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer done()

	setLogEnvVars()
	ctx = logging.WithLogger(ctx, logging.NewFromEnv("SCAFFOLDIX_"))

	if err := realMain(ctx); err != nil {
		done()
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(scaffolderr.ExitCode(err))
	}
}

func setLogEnvVars() {
	if os.Getenv("SCAFFOLDIX_LOG_FORMAT") == "" {
		os.Setenv("SCAFFOLDIX_LOG_FORMAT", string(defaultLogFormat))
	}
	if os.Getenv("SCAFFOLDIX_LOG_LEVEL") == "" {
		os.Setenv("SCAFFOLDIX_LOG_LEVEL", defaultLogLevel.String())
	}
}

func realMain(ctx context.Context) error {
	return cli.RootCommand().Run(ctx, os.Args[1:]) //nolint:wrapcheck
}
