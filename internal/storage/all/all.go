// Package all registers every built-in storage backend. Import it for side
// effects from the binary's wiring layer:
//
//	import _ "github.com/bmetcalf21/data-integrity-validator/internal/storage/all"
package all

import (
	_ "github.com/bmetcalf21/data-integrity-validator/internal/storage/mssql"
	_ "github.com/bmetcalf21/data-integrity-validator/internal/storage/mysql"
	_ "github.com/bmetcalf21/data-integrity-validator/internal/storage/postgres"
	_ "github.com/bmetcalf21/data-integrity-validator/internal/storage/sqlite"
)
