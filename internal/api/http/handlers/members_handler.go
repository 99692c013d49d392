package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/desh1993/fitness-mvp/internal/api/dto"
	"github.com/desh1993/fitness-mvp/internal/auth"
	"github.com/desh1993/fitness-mvp/internal/service"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

// MembersHandler exposes the member roster endpoints.
type MembersHandler struct {
	service *service.MemberService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(memberService *service.MemberService) *MembersHandler {
	return &MembersHandler{service: memberService}
}

// Index GET /members.
func (h *MembersHandler) Index(c *fiber.Ctx) error {
	query := service.MemberQuery{
		Search:         c.Query("search"),
		Status:         c.Query("status"),
		MembershipType: c.Query("membership_type"),
		JoinedAt:       c.Query("joined_at"),
		Page:           c.QueryInt("page", 1),
		PerPage:        c.QueryInt("per_page", 0),
	}

	page, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}

	items := make([]dto.MemberResponse, 0, len(page.Data))
	for i := range page.Data {
		items = append(items, dto.NewMemberResponse(&page.Data[i]))
	}
	return c.JSON(dto.MemberIndexResponse{
		Members: dto.MemberPageResponse{
			Data:        items,
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
			PerPage:     page.PerPage,
			Total:       page.Total,
			From:        page.From,
			To:          page.To,
		},
		Filters: dto.MemberFilters{Search: query.Search, Status: query.Status},
	})
}

// Show GET /members/:id.
func (h *MembersHandler) Show(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	member, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberResponse(member)})
}

// Store POST /members.
func (h *MembersHandler) Store(c *fiber.Ctx) error {
	var req dto.MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	member, err := h.service.Create(c.UserContext(), actorID(c), memberInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Member created successfully.",
		"data":    dto.NewMemberResponse(member),
	})
}

// Update PUT /members/:id.
func (h *MembersHandler) Update(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	var req dto.MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	member, err := h.service.Update(c.UserContext(), actorID(c), id, memberInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Member updated successfully.",
		"data":    dto.NewMemberResponse(member),
	})
}

// Destroy DELETE /members/:id.
func (h *MembersHandler) Destroy(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actorID(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Member deleted successfully."})
}

// Check POST /members/check.
func (h *MembersHandler) Check(c *fiber.Ctx) error {
	var req dto.MemberCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	result, err := h.service.CheckExists(c.UserContext(), service.CheckInput{
		Field:     req.Field,
		Value:     req.Value,
		ExcludeID: req.ExcludeID.Ptr(),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.MemberCheckResponse{
		Valid:   result.Valid,
		Exists:  result.Exists,
		Message: result.Message,
	})
}

func memberID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequest("invalid member id")
	}
	return id, nil
}

func actorID(c *fiber.Ctx) *int64 {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil
	}
	id := principal.User.ID
	return &id
}

func memberInput(req dto.MemberRequest) service.MemberInput {
	return service.MemberInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		DateOfBirth:    req.DateOfBirth,
		MembershipType: req.MembershipType,
		Status:         req.Status,
		JoinedAt:       req.JoinedAt,
	}
}
