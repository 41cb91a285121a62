package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

type CasbinService struct{ E *casbin.Enforcer }

// DefaultPolicies grants the route groups each role may call. Admin inherits user.
var DefaultPolicies = [][]string{
	{domain.RoleUser, "/auth/*", "*"},
	{domain.RoleUser, "/me/*", "GET"},
	{domain.RoleUser, "/listings", "POST"},
	{domain.RoleUser, "/listings/:id", "*"},
	{domain.RoleUser, "/listings/:id/*", "POST"},
	{domain.RoleUser, "/notifications", "GET"},
	{domain.RoleUser, "/notifications/*", "*"},
	{domain.RoleUser, "/payments/*", "POST"},
	{domain.RoleAdmin, "/admin/*", "*"},
}

// RBACModel is the request model used when no model file is configured
const RBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// NewCasbinService loads the model from modelPath (or RBACModel when empty) and policies from the database
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}

	var E *casbin.Enforcer
	if modelPath == "" {
		m, err := model.NewModelFromString(RBACModel)
		if err != nil {
			return nil, err
		}
		E, err = casbin.NewEnforcer(m, adp)
		if err != nil {
			return nil, err
		}
	} else {
		E, err = casbin.NewEnforcer(modelPath, adp)
		if err != nil {
			return nil, err
		}
	}
	if err := E.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seed(E); err != nil {
		return nil, err
	}
	return &CasbinService{E}, nil
}

// seed installs the default policies and the admin to user inheritance when missing
func seed(e *casbin.Enforcer) error {
	for _, p := range DefaultPolicies {
		ok, err := e.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		if !ok {
			if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
				return err
			}
		}
	}
	ok, err := e.HasGroupingPolicy(domain.RoleAdmin, domain.RoleUser)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := e.AddGroupingPolicy(domain.RoleAdmin, domain.RoleUser); err != nil {
			return err
		}
	}
	return nil
}
