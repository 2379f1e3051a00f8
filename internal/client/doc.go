// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

// Package client implements the interactive vault application runtime.
//
// It wires the terminal prompt loop, the vault services and the auto-lock
// job into a single process lifecycle.
package client
