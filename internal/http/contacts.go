package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contact-keeper/internal/domain"
	"contact-keeper/internal/service"
)

type createContactRequest struct {
	Name  string `json:"name" binding:"required" msg:"name is required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

// updateContactRequest has no owner field, so a supplied "user" key is dropped.
type updateContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Type  *string `json:"type"`
}

type ContactResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
	User  string `json:"user"`
	Date  string `json:"date"`
}

func (h *Handler) listContacts(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	contacts, err := h.contacts.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ContactResponse, len(contacts))
	for i := range contacts {
		resp[i] = contactToResponse(contacts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createContact(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	var req createContactRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), userID, service.NewContact{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  req.Type,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contactToResponse(*contact))
}

func (h *Handler) updateContact(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	var req updateContactRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	contact, err := h.contacts.Update(c.Request.Context(), userID, c.Param("id"), domain.ContactPatch{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  req.Type,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contactToResponse(*contact))
}

func (h *Handler) deleteContact(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "contact removed"})
}

func contactToResponse(contact domain.Contact) ContactResponse {
	return ContactResponse{
		ID:    contact.ID,
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
		Type:  contact.Type,
		User:  contact.OwnerID,
		Date:  contact.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
