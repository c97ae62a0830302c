package repository

import (
	"auditdna/internal/db"
	"auditdna/internal/domain"
)

// NewStores bundles the namespace-scoped repositories over one storage
// namespace. Each repo gets both pools: inserts and updates serialize on the
// single write connection, queries fan out over the read pool.
func NewStores(ns *db.Namespace) *domain.Stores {
	return &domain.Stores{
		Records: NewRecordRepo(ns.WriteDB, ns.ReadDB),
		Uploads: NewUploadRepo(ns.WriteDB, ns.ReadDB),
		Reports: NewReportRepo(ns.WriteDB, ns.ReadDB),
		Audit:   NewAuditRepo(ns.WriteDB, ns.ReadDB),
		Users:   NewUserRepo(ns.WriteDB, ns.ReadDB),
	}
}
