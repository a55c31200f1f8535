// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Init se llama una vez en cmd/olympus. El resto del código usa From(ctx),
// que devuelve el logger inyectado por el middleware HTTP (con request_id) o
// el singleton si no hay ninguno.
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("mfa.activate"))
//	log.Warn("mfa token rejected", logger.Username(u), logger.MFAType(t))
//
// Cookies, secretos y tokens nunca se loguean completos: usar Masked.
package logger
