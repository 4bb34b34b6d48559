package domain

const (
	// Media layout constants, relative to the media root
	CATALOG_PRODUCT_DIR = "catalog/product"
	NATIVE_CACHE_DIR    = "catalog/product/cache"
	OPTIMIZED_DIR       = "catalog/product/optimized"

	// Config store keys
	CONFIG_API_KEY_PATH           = "tinify_compress_images/general/key"
	CONFIG_TYPES_PATH             = "tinify_compress_images/types"
	CONFIG_COMPRESSION_COUNT_PATH = "tinify_compress_images/status/compression_count"

	// LOG_CATEGORY is the logger name compression failures are reported under
	LOG_CATEGORY = "tinify"
)
