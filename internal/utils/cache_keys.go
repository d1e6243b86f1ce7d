package utils

// bump the version when the cached Service shape changes
func BuildServicesCacheKey() string {
	return "services:list:v1"
}
