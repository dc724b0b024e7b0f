// Package errors holds the sentinel errors shared by the product layers.
package errors

import "errors"

// NotFoundMessage is the client-facing text for a missing product.
const NotFoundMessage = "Produto Não Encontrado!"

// InvalidProductMessage is the client-facing text for a create request without price or quantity.
const InvalidProductMessage = "Preço e Quantidade tem que ser maior que zero e não devem estar em branco."

var ErrProductNotFound = errors.New("product not found")

var ErrInvalidProduct = errors.New("product price and quantity must be non-zero")

var ErrInvalidPage = errors.New("invalid page request")
