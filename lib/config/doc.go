// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Docket's YAML configuration.
//
// Loading is a fixed pipeline: start from [Default], overlay the YAML
// file, apply the section matching [Config].Environment (development,
// staging, or production), then expand ${HOME}, ${DOCKET_STATE}, and
// ${VAR:-default} patterns in path fields. Nothing else touches the
// result; in particular, environment variables never override
// individual values.
//
// There is exactly one way to find the file: [Load] reads the path
// from DOCKET_CONFIG, and [LoadFile] takes the path handed to the
// --config flag. No ~/.config discovery, no search path. A Docket
// process can always say exactly which file configured it.
//
// [Config] groups settings by consumer: Paths, Driver, Agent, Store,
// and Service.
//
// This package depends on no other Docket packages.
package config
