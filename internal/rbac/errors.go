package rbac

import "errors"

var (
	// ErrSystemRole los roles de sistema no se editan ni se borran.
	ErrSystemRole = errors.New("rbac: system role is protected")

	// ErrRoleInUse el rol tiene usuarios asignados y no puede borrarse.
	ErrRoleInUse = errors.New("rbac: role has assigned users")

	// ErrCrossPool la operación mezcla entidades de pools distintos.
	ErrCrossPool = errors.New("rbac: entities belong to different pools")
)
