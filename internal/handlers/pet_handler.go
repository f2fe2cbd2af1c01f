package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"usersvc/internal/models"
	"usersvc/internal/services"
)

// PetHandler handles HTTP requests for pets.
type PetHandler struct {
	service *services.PetService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service *services.PetService) *PetHandler {
	return &PetHandler{
		service: service,
	}
}

// RegisterRoutes registers the pet routes behind auth.
func (h *PetHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	pets := router.Group("/pets", auth)
	pets.Get("/", h.HandleList)
	pets.Get("/:id", h.HandleGet)
	pets.Post("/", h.HandleCreate)
	pets.Put("/:id", h.HandleUpdate)
	pets.Delete("/:id", h.HandleDelete)
}

func (h *PetHandler) HandleList(c *fiber.Ctx) error {
	pets, err := h.service.ListPets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(pets)
}

func (h *PetHandler) HandleGet(c *fiber.Ctx) error {
	pet, err := h.service.GetPet(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(pet)
}

func (h *PetHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.PetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	pet, err := h.service.CreatePet(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Location(strings.TrimSuffix(c.Path(), "/") + "/" + pet.ID)
	return c.Status(fiber.StatusCreated).JSON(pet)
}

func (h *PetHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.PetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if _, err := h.service.UpdatePet(c.UserContext(), c.Params("id"), req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PetHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeletePet(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
