package mapping

// AddVariantToProduct 第一个变体成为 masterVariant，之后的追加到 variants
func AddVariantToProduct(variant any, product *Document) {
	if mv, ok := product.Get("masterVariant"); !ok || mv == nil {
		product.Set("masterVariant", variant)
		return
	}
	variants := arrayOf(product, "variants")
	product.Set("variants", append(variants, variant))
}
