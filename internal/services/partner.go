package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// PartnerImageFields are the gallery slots a partner can fill
var PartnerImageFields = []string{"image1", "image2", "image3", "image4"}

// PartnerService manages a partner's profile, catalogue, payment details and media
type PartnerService struct {
	partners storage.ActorRepository[models.Partner]
	media    *MediaStore
	now      func() time.Time
	newID    func() string
}

// NewPartnerService creates a new partner service
func NewPartnerService(partners storage.ActorRepository[models.Partner], media *MediaStore) *PartnerService {
	return &PartnerService{partners: partners, media: media, now: time.Now, newID: uuid.NewString}
}

func (s *PartnerService) save(ctx context.Context, p *models.Partner) error {
	p.Touch(s.now())
	if err := s.partners.Update(ctx, p); err != nil {
		return actorUpdateFailure(err, "Partner")
	}
	return nil
}

// Update applies the supplied profile fields
func (s *PartnerService) Update(ctx context.Context, p *models.Partner, in models.PartnerUpdate) (*models.Partner, error) {
	next := *p
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.ValidationError("name cannot be empty")
		}
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Mobile != nil {
		mobile := strings.TrimSpace(*in.Mobile)
		if err := ValidateMobile("mobile", mobile); err != nil {
			return nil, err
		}
		next.Mobile = mobile
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
		next.Email = email
	}
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return p, nil
}

// Category operations

func (s *PartnerService) categoryIndex(p *models.Partner, id string) int {
	for i, c := range p.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *PartnerService) nameTaken(p *models.Partner, name, exceptID string) bool {
	for _, c := range p.Categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func validateSubcategories(subs []models.Subcategory) error {
	for _, sub := range subs {
		if strings.TrimSpace(sub.Name) == "" {
			return models.ValidationError("subcategory name is required")
		}
		for _, item := range sub.Items {
			if strings.TrimSpace(item.ItemName) == "" {
				return models.ValidationError("itemName is required")
			}
			for _, m := range item.Methods {
				if strings.TrimSpace(m.MethodName) == "" {
					return models.ValidationError("methodName is required")
				}
				if m.Price < 0 {
					return models.ValidationError(fmt.Sprintf("price of %s must be non-negative", item.ItemName))
				}
			}
		}
	}
	return nil
}

// AddCategory appends a new category; names are unique per partner, ignoring case
func (s *PartnerService) AddCategory(ctx context.Context, p *models.Partner, in models.CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.ValidationError("Category name is required")
	}
	name := strings.TrimSpace(*in.Name)
	if s.nameTaken(p, name, "") {
		return nil, models.ValidationError("Category with this name already exists")
	}
	category := models.Category{ID: s.newID(), Name: name, Subcategories: []models.Subcategory{}}
	if in.Subcategories != nil {
		if err := validateSubcategories(*in.Subcategories); err != nil {
			return nil, err
		}
		category.Subcategories = *in.Subcategories
	}

	next := *p
	next.Categories = append(append([]models.Category{}, p.Categories...), category)
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return &category, nil
}

// UpdateCategory renames a category and/or replaces its subcategories
func (s *PartnerService) UpdateCategory(ctx context.Context, p *models.Partner, id string, in models.CategoryInput) (*models.Category, error) {
	i := s.categoryIndex(p, id)
	if i < 0 {
		return nil, models.NotFound("Category not found")
	}
	next := *p
	next.Categories = append([]models.Category{}, p.Categories...)
	category := next.Categories[i]

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.ValidationError("Category name cannot be empty")
		}
		if s.nameTaken(p, name, id) {
			return nil, models.ValidationError("Category with this name already exists")
		}
		category.Name = name
	}
	if in.Subcategories != nil {
		if err := validateSubcategories(*in.Subcategories); err != nil {
			return nil, err
		}
		category.Subcategories = *in.Subcategories
	}
	next.Categories[i] = category

	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return &category, nil
}

func (s *PartnerService) DeleteCategory(ctx context.Context, p *models.Partner, id string) error {
	i := s.categoryIndex(p, id)
	if i < 0 {
		return models.NotFound("Category not found")
	}
	next := *p
	next.Categories = append(append([]models.Category{}, p.Categories[:i]...), p.Categories[i+1:]...)
	if err := s.save(ctx, &next); err != nil {
		return err
	}
	*p = next
	return nil
}

// SetPaymentDetails validates and stores the payout methods supplied in in.
// Bank account fields go together; PhonePe and UPI are independent.
func (s *PartnerService) SetPaymentDetails(ctx context.Context, p *models.Partner, in models.BankDetailsInput) (*models.PaymentDetails, error) {
	in.AccountHolderName = strings.TrimSpace(in.AccountHolderName)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.IFSCCode = strings.TrimSpace(in.IFSCCode)
	in.PhonePe = strings.TrimSpace(in.PhonePe)
	in.UPI = strings.TrimSpace(in.UPI)

	hasBank := in.AccountHolderName != "" || in.AccountNumber != "" || in.IFSCCode != ""
	if !hasBank && in.PhonePe == "" && in.UPI == "" {
		return nil, models.ValidationError("Please provide at least one payment method: bank account details, PhonePe number, or UPI ID")
	}

	details := p.PaymentDetails
	if hasBank {
		if err := ValidateBankAccount(in.AccountHolderName, in.AccountNumber, in.IFSCCode); err != nil {
			return nil, err
		}
		details.AccountHolderName = in.AccountHolderName
		details.AccountNumber = in.AccountNumber
		details.IFSCCode = in.IFSCCode
	}
	if in.PhonePe != "" {
		if err := ValidatePhonePe(in.PhonePe); err != nil {
			return nil, err
		}
		details.PhonePe = in.PhonePe
	}
	if in.UPI != "" {
		if err := ValidateUPI(in.UPI); err != nil {
			return nil, err
		}
		details.UPI = in.UPI
	}

	next := *p
	next.PaymentDetails = details
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return &p.PaymentDetails, nil
}

// AddServices sets the services and location; every field is required
func (s *PartnerService) AddServices(ctx context.Context, p *models.Partner, in models.ServicesInput) (*models.Partner, error) {
	switch {
	case in.LaundryName == nil || strings.TrimSpace(*in.LaundryName) == "":
		return nil, models.ValidationError("laundryName is required")
	case in.ExpressService == nil:
		return nil, models.ValidationError("expressService is required")
	case in.DeliveryService == nil:
		return nil, models.ValidationError("deliveryService is required")
	case len(in.OperationHours) == 0:
		return nil, models.ValidationError("operationHours is required")
	case in.Location == nil:
		return nil, models.ValidationError("location is required")
	}
	if err := validateHours(in.OperationHours); err != nil {
		return nil, err
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}

	next := *p
	next.LaundryName = strings.TrimSpace(*in.LaundryName)
	next.ExpressServices = *in.ExpressService
	next.DeliveryServices = *in.DeliveryService
	next.Hours = in.OperationHours
	loc := *in.Location
	next.Location = &loc
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return p, nil
}

// UpdateServices merges the supplied fields; hours are merged per weekday
func (s *PartnerService) UpdateServices(ctx context.Context, p *models.Partner, in models.ServicesInput) (*models.Partner, error) {
	next := *p
	if in.LaundryName != nil {
		if strings.TrimSpace(*in.LaundryName) == "" {
			return nil, models.ValidationError("laundryName cannot be empty")
		}
		next.LaundryName = strings.TrimSpace(*in.LaundryName)
	}
	if in.ExpressService != nil {
		next.ExpressServices = *in.ExpressService
	}
	if in.DeliveryService != nil {
		next.DeliveryServices = *in.DeliveryService
	}
	if len(in.OperationHours) > 0 {
		if err := validateHours(in.OperationHours); err != nil {
			return nil, err
		}
		hours := make(map[string]models.DayHours, len(p.Hours)+len(in.OperationHours))
		for day, h := range p.Hours {
			hours[day] = h
		}
		for day, h := range in.OperationHours {
			hours[day] = h
		}
		next.Hours = hours
	}
	if in.Location != nil {
		if err := validateLocation(in.Location); err != nil {
			return nil, err
		}
		loc := *in.Location
		next.Location = &loc
	}
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	return p, nil
}

// Media operations

func (s *PartnerService) folder(p *models.Partner) string { return "partners/" + p.ID }

func (s *PartnerService) imageSlots(p *models.Partner) map[string]*string {
	return map[string]*string{
		"logo":         &p.Logo,
		"profileImage": &p.ProfileImage,
		"image1":       &p.Image1,
		"image2":       &p.Image2,
		"image3":       &p.Image3,
		"image4":       &p.Image4,
	}
}

func (s *PartnerService) replaceImages(ctx context.Context, p *models.Partner, uploads []Upload, allowed ...string) (*models.Partner, error) {
	if len(uploads) == 0 {
		return nil, models.ValidationError("No files uploaded")
	}
	all := s.imageSlots(p)
	slots := make(map[string]*string, len(allowed))
	for _, field := range allowed {
		slots[field] = all[field]
	}
	err := swapImages(ctx, s.media, s.folder(p), uploads, slots, func() error {
		return s.save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PartnerService) UploadLogo(ctx context.Context, p *models.Partner, u Upload) (*models.Partner, error) {
	u.Field = "logo"
	return s.replaceImages(ctx, p, []Upload{u}, "logo")
}

func (s *PartnerService) UploadProfileImage(ctx context.Context, p *models.Partner, u Upload) (*models.Partner, error) {
	u.Field = "profileImage"
	return s.replaceImages(ctx, p, []Upload{u}, "profileImage")
}

// UploadImages fills gallery slots image1..image4 from the matching form fields
func (s *PartnerService) UploadImages(ctx context.Context, p *models.Partner, uploads []Upload) (*models.Partner, error) {
	return s.replaceImages(ctx, p, uploads, PartnerImageFields...)
}

// DeleteImages clears the named image slots and removes their files
func (s *PartnerService) DeleteImages(ctx context.Context, p *models.Partner, fields []string) (*models.Partner, error) {
	if len(fields) == 0 {
		return nil, models.ValidationError("No images specified")
	}
	slots := s.imageSlots(p)
	next := *p
	nextSlots := s.imageSlots(&next)
	var removed []string
	for _, field := range fields {
		slot, ok := slots[field]
		if !ok {
			return nil, models.ValidationError("unknown image field " + field)
		}
		if *slot != "" {
			removed = append(removed, *slot)
		}
		*nextSlots[field] = ""
	}
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*p = next
	s.media.DeleteAll(ctx, removed)
	log.WithFields(log.Fields{"actor_id": p.ID, "count": len(removed)}).Info("🗑️ Partner images deleted")
	return p, nil
}
