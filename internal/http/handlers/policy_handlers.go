package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// PolicyHandlers exposes the casbin policy table to admins
type PolicyHandlers struct {
	policies domain.PolicyService
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policies domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policies: policies}
}

type policyReq struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	rows := h.policies.GetPolicies()
	out := make([]gin.H, 0, len(rows))
	for _, p := range rows {
		if len(p) < 3 {
			continue
		}
		out = append(out, gin.H{"role": p[0], "resource": p[1], "action": p[2]})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if !bindJSON(c, &r) {
		return
	}
	if err := h.policies.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if !bindJSON(c, &r) {
		return
	}
	if err := h.policies.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
