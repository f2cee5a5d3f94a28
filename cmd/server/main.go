// Command server runs the conversational booking backend.
//
// @title                       Booking Backend API
// @version                     1.0
// @description                 WhatsApp appointment assistant: webhook for the messaging gateway and admin endpoints for appointments, availability, settings and sessions.
// @BasePath                    /api/v1
// @schemes                     http https
package main

func main() {
	Execute()
}
