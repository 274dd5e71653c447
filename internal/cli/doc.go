// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and dispatches the olla
// subcommands. Handlers return typed errors; main maps them to exit
// codes via GetExitCode.
package cli
