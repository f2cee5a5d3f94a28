// Package docs registers the OpenAPI description served by /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {"get": {"produces": ["application/json"], "tags": ["Admin"], "summary": "Service status", "operationId": "getStatus", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}, "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/stats": {"get": {"produces": ["application/json"], "tags": ["Admin"], "summary": "Dashboard numbers", "operationId": "getStats", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Stats"}}, "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/config": {
            "get": {"produces": ["application/json"], "tags": ["Admin"], "summary": "Runtime settings", "operationId": "getConfig", "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}},
            "put": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["Admin"], "summary": "Update runtime settings", "operationId": "updateConfig", "parameters": [{"description": "Settings to change", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "string"}}}], "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/bot/toggle": {"post": {"produces": ["application/json"], "tags": ["Admin"], "summary": "Switch the assistant on or off", "operationId": "toggleBot", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ToggleBotResponse"}}}}},
        "/appointments": {
            "get": {"produces": ["application/json"], "tags": ["Appointments"], "summary": "List appointments (paginated)", "operationId": "listAppointments", "parameters": [{"type": "string", "name": "date", "in": "query"}, {"enum": ["Confirmed", "Cancelled"], "type": "string", "name": "status", "in": "query"}, {"type": "string", "name": "phone", "in": "query"}, {"type": "integer", "default": 1, "name": "page", "in": "query"}, {"type": "integer", "default": 20, "maximum": 100, "name": "page_size", "in": "query"}, {"type": "string", "name": "If-None-Match", "in": "header"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListAppointmentsResponse"}}, "304": {"description": "Not Modified"}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}},
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["Appointments"], "summary": "Book an appointment", "operationId": "createAppointment", "parameters": [{"type": "string", "name": "Idempotency-Key", "in": "header"}, {"description": "Booking", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateAppointmentRequest"}}], "responses": {"200": {"description": "Idempotent replay", "schema": {"$ref": "#/definitions/domain.Appointment"}}, "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Appointment"}}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "422": {"description": "Slot outside the calendar", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/appointments/today": {"get": {"produces": ["application/json"], "tags": ["Appointments"], "summary": "Today's appointments", "operationId": "todayAppointments", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AppointmentsResponse"}}}}},
        "/appointments/{id}/cancel": {"post": {"produces": ["application/json"], "tags": ["Appointments"], "summary": "Cancel an appointment", "operationId": "cancelAppointment", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Appointment"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/appointments/{id}": {"delete": {"tags": ["Appointments"], "summary": "Delete an appointment", "operationId": "deleteAppointment", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/availability": {"get": {"produces": ["application/json"], "tags": ["Availability"], "summary": "Open slots", "operationId": "getAvailability", "parameters": [{"type": "string", "name": "start", "in": "query"}, {"type": "integer", "maximum": 31, "minimum": 1, "name": "days", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AvailabilityResponse"}}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/sessions/{customer}": {
            "get": {"produces": ["application/json"], "tags": ["Sessions"], "summary": "Customer session", "operationId": "getSession", "parameters": [{"type": "string", "name": "customer", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Session"}}}},
            "delete": {"tags": ["Sessions"], "summary": "Reset a customer session", "operationId": "resetSession", "parameters": [{"type": "string", "name": "customer", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string", "example": "bad_request"}, "message": {"type": "string"}, "request_id": {"type": "string"}}},
        "handlers.StatusResponse": {"type": "object", "properties": {"status": {"type": "string", "example": "online"}, "bot_enabled": {"type": "boolean"}, "time": {"type": "string"}}},
        "handlers.ToggleBotResponse": {"type": "object", "properties": {"bot_enabled": {"type": "boolean"}}},
        "handlers.CreateAppointmentRequest": {"type": "object", "required": ["date", "time", "name"], "properties": {"date": {"type": "string", "example": "2025-12-22"}, "time": {"type": "string", "example": "10am"}, "name": {"type": "string", "example": "Ana"}, "phone": {"type": "string"}, "service": {"type": "string", "example": "Corte + Barba"}, "total": {"type": "number"}}},
        "handlers.Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total": {"type": "integer"}, "total_pages": {"type": "integer"}, "has_next": {"type": "boolean"}}},
        "handlers.ListAppointmentsResponse": {"type": "object", "properties": {"appointments": {"type": "array", "items": {"$ref": "#/definitions/domain.Appointment"}}, "pagination": {"$ref": "#/definitions/handlers.Pagination"}}},
        "handlers.AppointmentsResponse": {"type": "object", "properties": {"appointments": {"type": "array", "items": {"$ref": "#/definitions/domain.Appointment"}}}},
        "handlers.AvailabilityResponse": {"type": "object", "properties": {"days": {"type": "array", "items": {"type": "object"}}}},
        "domain.Appointment": {"type": "object", "properties": {"id": {"type": "string"}, "date": {"type": "string"}, "time": {"type": "string", "example": "10:00"}, "customer_name": {"type": "string"}, "phone": {"type": "string"}, "service": {"type": "string"}, "total": {"type": "number"}, "status": {"type": "string", "enum": ["Confirmed", "Cancelled"]}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "services.Stats": {"type": "object", "properties": {"bot_enabled": {"type": "boolean"}, "business_name": {"type": "string"}, "total_appointments": {"type": "integer"}, "appointments_today": {"type": "integer"}, "messages_today": {"type": "integer"}}},
        "services.Session": {"type": "object", "properties": {"customer_id": {"type": "string"}, "collected": {"type": "object"}, "recent_turns": {"type": "array", "items": {"type": "object"}}, "updated_at": {"type": "string"}, "expired": {"type": "boolean"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Booking Backend API",
	Description:      "WhatsApp appointment assistant: webhook for the messaging gateway and admin endpoints for appointments, availability, settings and sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
