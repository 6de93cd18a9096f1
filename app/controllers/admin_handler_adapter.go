package controllers

import "github.com/gofiber/fiber/v2"

// Adapter functions used by the router.

func HandleAdminDashboard(c *fiber.Ctx) error  { return GetAdminController().HandleDashboard(c) }
func HandleAdminUsers(c *fiber.Ctx) error      { return GetAdminController().HandleUsers(c) }
func HandleAdminUserEdit(c *fiber.Ctx) error   { return GetAdminController().HandleUserEdit(c) }
func HandleAdminUserUpdate(c *fiber.Ctx) error { return GetAdminController().HandleUserUpdate(c) }
func HandleAdminUserDelete(c *fiber.Ctx) error { return GetAdminController().HandleUserDelete(c) }

func HandleAdminSettings(c *fiber.Ctx) error { return GetAdminController().HandleSettings(c) }
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleSettingsUpdate(c)
}

func HandleAdminGateways(c *fiber.Ctx) error { return GetAdminController().HandleGateways(c) }
func HandleAdminGatewaysUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleGatewaysUpdate(c)
}

func HandleAdminEmailSettings(c *fiber.Ctx) error { return GetAdminController().HandleEmailSettings(c) }
func HandleAdminEmailSettingsUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleEmailSettingsUpdate(c)
}

func HandleAdminGroupEmail(c *fiber.Ctx) error { return GetAdminController().HandleGroupEmail(c) }
func HandleAdminGroupEmailSend(c *fiber.Ctx) error {
	return GetAdminController().HandleGroupEmailSend(c)
}
