package certification

import (
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Include names a related aggregate to hydrate alongside the root entity.
type Include string

const (
	IncludeUser          Include = "user"
	IncludeCertification Include = "certification"
	IncludeSignatures    Include = "signatures"
	IncludeCredential    Include = "credential"
	IncludeMembership    Include = "membership"
	IncludeRequest       Include = "request"
)

// Default include sets used by the handlers.
var (
	RequestDetailIncludes    = []Include{IncludeUser, IncludeCredential, IncludeCertification, IncludeMembership}
	MembershipDetailIncludes = []Include{IncludeUser, IncludeRequest, IncludeSignatures, IncludeCredential}
)

func requestPreloads(includes []Include) []string {
	var paths []string
	for _, inc := range includes {
		switch inc {
		case IncludeUser:
			paths = append(paths, "User")
		case IncludeCertification:
			paths = append(paths, "Certification")
		case IncludeSignatures:
			paths = append(paths,
				"Certification.ManagementSignature.Image",
				"Certification.SecretarySignature.Image",
			)
		case IncludeCredential:
			paths = append(paths, "Credential")
		case IncludeMembership:
			paths = append(paths, "Membership")
		}
	}
	return paths
}

func membershipPreloads(includes []Include) []string {
	var paths []string
	for _, inc := range includes {
		switch inc {
		case IncludeUser:
			paths = append(paths, "User")
		case IncludeRequest:
			paths = append(paths, "CertificationRequest")
		case IncludeCertification, IncludeSignatures, IncludeCredential:
			for _, p := range requestPreloads([]Include{inc}) {
				paths = append(paths, "CertificationRequest."+p)
			}
		}
	}
	return paths
}

func preload(db *gorm.DB, paths []string) *gorm.DB {
	for _, p := range paths {
		db = db.Preload(p)
	}
	return db
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// PageQuery selects one page of a listing. Zero values mean page 1 with the
// default page size.
type PageQuery struct {
	Page    int
	PerPage int
}

func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q
}

type PageMeta struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// paginate counts the filtered query and fetches one page, latest first.
func paginate[T any](db *gorm.DB, q PageQuery, preloads []string) (*Page[T], error) {
	q = q.normalize()

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, q.PerPage)
	err := preload(db.Session(&gorm.Session{}), preloads).
		Order("created_at desc").Order("id desc").
		Offset((q.Page - 1) * q.PerPage).
		Limit(q.PerPage).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	lastPage := int(math.Ceil(float64(total) / float64(q.PerPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	return &Page[T]{
		Items: items,
		Meta:  PageMeta{Page: q.Page, PerPage: q.PerPage, Total: total, LastPage: lastPage},
	}, nil
}

// matchAny builds a case-insensitive LIKE over text columns, plus equality
// over id columns when the term is numeric.
func matchAny(db *gorm.DB, term string, textColumns, idColumns []string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return db
	}
	like := "%" + strings.ToLower(term) + "%"

	cond := db.Session(&gorm.Session{NewDB: true})
	for _, col := range textColumns {
		cond = cond.Or("LOWER("+col+") LIKE ?", like)
	}
	if id, err := strconv.ParseUint(term, 10, 64); err == nil {
		for _, col := range idColumns {
			cond = cond.Or(col+" = ?", id)
		}
	}
	return db.Where(cond)
}
