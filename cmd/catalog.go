// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"github.com/MackanT/NibeTester/pkg/catalog"
)

// loadCatalog360 returns the register catalog for the 360P dialect:
// --registers when given, the built-in table otherwise.
func loadCatalog360() (*catalog.Catalog, error) {
	if catalogPath != "" {
		return catalog.LoadFile(catalogPath)
	}
	return catalog.RCU360P(), nil
}

// loadCatalogModbus returns the register catalog for the MODBUS 40
// dialect.
func loadCatalogModbus() (*catalog.Catalog, error) {
	if catalogPath != "" {
		return catalog.LoadFile(catalogPath)
	}
	return catalog.Fighter360P(), nil
}
