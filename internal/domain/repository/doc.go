// Package repository define los contratos de los colaboradores de almacenamiento
// que consume el núcleo de autorización.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (memoria, PostgreSQL, Redis).
//
// Las implementaciones concretas viven en internal/store/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│   auth.Handler / mfa.Service / session.Authority    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  UserRepository, MFARepository, SessionRepository   │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│   store/    │  │   store/    │  │   store/    │
//	│   memory    │  │     pg      │  │    redis    │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Las claves de atributos llegan ya normalizadas (minúsculas); los adapters
//     igual normalizan al escribir
//   - Incremento/clear de contadores y alta/baja de cookies son atómicos por clave
//   - Errores de dominio están en errors.go
package repository
