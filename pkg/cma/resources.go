package cma

import (
	"encoding/json"
	"time"
)

// Space resources.
type (
	// SpaceFields are the attributes of a space.
	SpaceFields struct {
		Name          string `json:"name"                    yaml:"name"`
		DefaultLocale string `json:"defaultLocale,omitempty" yaml:"defaultLocale,omitempty"`
	}

	// Space is a wrapped space.
	Space = Envelope[SpaceFields]

	// SpaceCollection is a page of spaces.
	SpaceCollection = Collection[SpaceFields]
)

// LocalizedFields maps field id → locale code → value.
type LocalizedFields map[string]map[string]interface{}

// Get returns the value of field for locale.
func (f LocalizedFields) Get(field, locale string) (interface{}, bool) {
	values, ok := f[field]
	if !ok {
		return nil, false
	}

	value, ok := values[locale]

	return value, ok
}

// Set stores value for field and locale.
func (f LocalizedFields) Set(field, locale string, value interface{}) {
	if f[field] == nil {
		f[field] = make(map[string]interface{})
	}

	f[field][locale] = value
}

// Metadata carries tags and other annotations.
type Metadata struct {
	Tags []Link `json:"tags" yaml:"tags"`
}

// Entry resources.
type (
	// EntryFields are the attributes of an entry.
	EntryFields struct {
		Fields   LocalizedFields `json:"fields"             yaml:"fields"`
		Metadata *Metadata       `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	}

	// Entry is a wrapped entry.
	Entry = Envelope[EntryFields]

	// EntryCollection is a page of entries.
	EntryCollection = Collection[EntryFields]
)

// Asset resources.
type (
	// AssetFile is the file attached to an asset for one locale.
	AssetFile struct {
		ContentType string                 `json:"contentType"          yaml:"contentType"`
		FileName    string                 `json:"fileName"             yaml:"fileName"`
		Upload      string                 `json:"upload,omitempty"     yaml:"upload,omitempty"`
		UploadFrom  *Link                  `json:"uploadFrom,omitempty" yaml:"uploadFrom,omitempty"`
		URL         string                 `json:"url,omitempty"        yaml:"url,omitempty"`
		Details     map[string]interface{} `json:"details,omitempty"    yaml:"details,omitempty"`
	}

	// AssetContent are the localized fields of an asset.
	AssetContent struct {
		Title       map[string]string     `json:"title,omitempty"       yaml:"title,omitempty"`
		Description map[string]string     `json:"description,omitempty" yaml:"description,omitempty"`
		File        map[string]*AssetFile `json:"file,omitempty"        yaml:"file,omitempty"`
	}

	// AssetFields are the attributes of an asset.
	AssetFields struct {
		Fields   AssetContent `json:"fields"             yaml:"fields"`
		Metadata *Metadata    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	}

	// Asset is a wrapped asset.
	Asset = Envelope[AssetFields]

	// AssetCollection is a page of assets.
	AssetCollection = Collection[AssetFields]
)

// Processed reports whether the file for locale has been processed.
func (a AssetFields) Processed(locale string) bool {
	file, ok := a.Fields.File[locale]

	return ok && file != nil && file.URL != ""
}

// Locales returns the locales that carry a file.
func (a AssetFields) Locales() []string {
	locales := make([]string, 0, len(a.Fields.File))
	for locale := range a.Fields.File {
		locales = append(locales, locale)
	}

	return locales
}

// Content type resources.
type (
	// Field describes one field of a content type.
	Field struct {
		ID           string                   `json:"id"                     yaml:"id"`
		Name         string                   `json:"name"                   yaml:"name"`
		Type         string                   `json:"type"                   yaml:"type"`
		LinkType     string                   `json:"linkType,omitempty"     yaml:"linkType,omitempty"`
		Items        *FieldItems              `json:"items,omitempty"        yaml:"items,omitempty"`
		Localized    bool                     `json:"localized"              yaml:"localized"`
		Required     bool                     `json:"required"               yaml:"required"`
		Disabled     bool                     `json:"disabled,omitempty"     yaml:"disabled,omitempty"`
		Omitted      bool                     `json:"omitted,omitempty"      yaml:"omitted,omitempty"`
		Validations  []map[string]interface{} `json:"validations,omitempty"  yaml:"validations,omitempty"`
		DefaultValue map[string]interface{}   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	}

	// FieldItems describes the element type of an Array field.
	FieldItems struct {
		Type        string                   `json:"type"                  yaml:"type"`
		LinkType    string                   `json:"linkType,omitempty"    yaml:"linkType,omitempty"`
		Validations []map[string]interface{} `json:"validations,omitempty" yaml:"validations,omitempty"`
	}

	// ContentTypeFields are the attributes of a content type.
	ContentTypeFields struct {
		Name         string  `json:"name"                   yaml:"name"`
		Description  string  `json:"description,omitempty"  yaml:"description,omitempty"`
		DisplayField string  `json:"displayField,omitempty" yaml:"displayField,omitempty"`
		Fields       []Field `json:"fields"                 yaml:"fields"`
	}

	// ContentType is a wrapped content type.
	ContentType = Envelope[ContentTypeFields]

	// ContentTypeCollection is a page of content types.
	ContentTypeCollection = Collection[ContentTypeFields]
)

// Editor interface resources.
type (
	// Control binds a field to an editor widget.
	Control struct {
		FieldID  string                 `json:"fieldId"            yaml:"fieldId"`
		WidgetID string                 `json:"widgetId,omitempty" yaml:"widgetId,omitempty"`
		Settings map[string]interface{} `json:"settings,omitempty" yaml:"settings,omitempty"`
	}

	// EditorInterfaceFields are the attributes of an editor interface.
	EditorInterfaceFields struct {
		Controls []Control `json:"controls" yaml:"controls"`
	}

	// EditorInterface is a wrapped editor interface.
	EditorInterface = Envelope[EditorInterfaceFields]
)

// ControlForField returns the control configured for fieldID, or nil.
func (f EditorInterfaceFields) ControlForField(fieldID string) *Control {
	for i := range f.Controls {
		if f.Controls[i].FieldID == fieldID {
			return &f.Controls[i]
		}
	}

	return nil
}

// Locale resources.
type (
	// LocaleFields are the attributes of a locale. Default and FallbackCode
	// are owned by the server and never sent back on update.
	LocaleFields struct {
		Name                 string `json:"name"                   yaml:"name"`
		Code                 string `json:"code"                   yaml:"code"`
		FallbackCode         string `json:"fallbackCode,omitempty" yaml:"fallbackCode,omitempty"`
		Default              bool   `json:"default,omitempty"      yaml:"default,omitempty"`
		ContentManagementAPI bool   `json:"contentManagementApi"   yaml:"contentManagementApi"`
		ContentDeliveryAPI   bool   `json:"contentDeliveryApi"     yaml:"contentDeliveryApi"`
		Optional             bool   `json:"optional"               yaml:"optional"`
	}

	// Locale is a wrapped locale.
	Locale = Envelope[LocaleFields]

	// LocaleCollection is a page of locales.
	LocaleCollection = Collection[LocaleFields]
)

// Webhook resources.
type (
	// WebhookHeader is a custom header sent with webhook calls.
	WebhookHeader struct {
		Key    string `json:"key"              yaml:"key"`
		Value  string `json:"value,omitempty"  yaml:"value,omitempty"`
		Secret bool   `json:"secret,omitempty" yaml:"secret,omitempty"`
	}

	// WebhookFields are the attributes of a webhook definition.
	WebhookFields struct {
		Name              string                   `json:"name"                        yaml:"name"`
		URL               string                   `json:"url"                         yaml:"url"`
		Topics            []string                 `json:"topics"                      yaml:"topics"`
		HTTPBasicUsername string                   `json:"httpBasicUsername,omitempty" yaml:"httpBasicUsername,omitempty"`
		HTTPBasicPassword string                   `json:"httpBasicPassword,omitempty" yaml:"httpBasicPassword,omitempty"`
		Headers           []WebhookHeader          `json:"headers,omitempty"           yaml:"headers,omitempty"`
		// Active is nil when the server did not report it.
		Active            *bool                    `json:"active,omitempty"            yaml:"active,omitempty"`
		Filters           []map[string]interface{} `json:"filters,omitempty"           yaml:"filters,omitempty"`
		Transformation    map[string]interface{}   `json:"transformation,omitempty"    yaml:"transformation,omitempty"`
	}

	// Webhook is a wrapped webhook definition.
	Webhook = Envelope[WebhookFields]

	// WebhookCollection is a page of webhook definitions.
	WebhookCollection = Collection[WebhookFields]
)

// WebhookCall summarizes one delivery attempt.
type WebhookCall struct {
	Sys        LinkSys    `json:"sys"                  yaml:"sys"`
	URL        string     `json:"url"                  yaml:"url"`
	EventType  string     `json:"eventType"            yaml:"eventType"`
	StatusCode int        `json:"statusCode"           yaml:"statusCode"`
	Errors     []string   `json:"errors,omitempty"     yaml:"errors,omitempty"`
	RequestAt  *time.Time `json:"requestAt,omitempty"  yaml:"requestAt,omitempty"`
	ResponseAt *time.Time `json:"responseAt,omitempty" yaml:"responseAt,omitempty"`
}

// WebhookCallCollection lists recent deliveries. Calls are read-only and are
// passed through without wrapping.
type WebhookCallCollection struct {
	Total int           `json:"total" yaml:"total"`
	Items []WebhookCall `json:"items" yaml:"items"`
}

// WebhookCallDetails is one delivery with its request and response.
type WebhookCallDetails struct {
	WebhookCall

	Request  json.RawMessage `json:"request,omitempty"  yaml:"request,omitempty"`
	Response json.RawMessage `json:"response,omitempty" yaml:"response,omitempty"`
}

// WebhookHealth summarizes recent delivery outcomes.
type WebhookHealth struct {
	Sys   LinkSys `json:"sys" yaml:"sys"`
	Calls struct {
		Total   int `json:"total"   yaml:"total"`
		Healthy int `json:"healthy" yaml:"healthy"`
	} `json:"calls" yaml:"calls"`
}

// Role resources.
type (
	// RoleFields are the attributes of a role.
	RoleFields struct {
		Name        string                 `json:"name"                  yaml:"name"`
		Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
		Permissions map[string]interface{} `json:"permissions"           yaml:"permissions"`
		Policies    []Policy               `json:"policies"              yaml:"policies"`
	}

	// Policy grants or denies actions under a constraint.
	Policy struct {
		Effect     string                 `json:"effect"               yaml:"effect"`
		Actions    interface{}            `json:"actions"              yaml:"actions"`
		Constraint map[string]interface{} `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	}

	// Role is a wrapped role.
	Role = Envelope[RoleFields]

	// RoleCollection is a page of roles.
	RoleCollection = Collection[RoleFields]
)

// Space membership resources.
type (
	// SpaceMembershipFields are the attributes of a space membership.
	SpaceMembershipFields struct {
		Admin bool   `json:"admin"          yaml:"admin"`
		Email string `json:"email,omitempty" yaml:"email,omitempty"`
		Roles []Link `json:"roles"          yaml:"roles"`
		User  *Link  `json:"user,omitempty" yaml:"user,omitempty"`
	}

	// SpaceMembership is a wrapped space membership.
	SpaceMembership = Envelope[SpaceMembershipFields]

	// SpaceMembershipCollection is a page of space memberships.
	SpaceMembershipCollection = Collection[SpaceMembershipFields]
)

// API key resources.
type (
	// APIKeyFields are the attributes of a delivery API key.
	APIKeyFields struct {
		Name          string `json:"name"                    yaml:"name"`
		Description   string `json:"description,omitempty"   yaml:"description,omitempty"`
		AccessToken   string `json:"accessToken,omitempty"   yaml:"accessToken,omitempty"`
		PreviewAPIKey *Link  `json:"preview_api_key,omitempty" yaml:"preview_api_key,omitempty"`
		Environments  []Link `json:"environments,omitempty"  yaml:"environments,omitempty"`
	}

	// APIKey is a wrapped API key.
	APIKey = Envelope[APIKeyFields]

	// APIKeyCollection is a page of API keys.
	APIKeyCollection = Collection[APIKeyFields]
)
