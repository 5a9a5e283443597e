// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the Greendale scheduler configuration from a
// YAML file.
//
// The file names an environment (development, staging or production)
// and may carry a section per environment whose fields override the
// base values when that environment is active:
//
//	environment: production
//	database:
//	  path: ${GREENDALE_DATA:-/var/lib/greendale}/greendale.db
//	retention:
//	  window: 720h
//	production:
//	  log:
//	    level: warn
//
// When retention.schedule is left empty it follows the environment:
// every five minutes in development, 02:00 UTC daily elsewhere.
package config
