package models

import (
	"net/http"
	"strings"
	"time"

	constants "MagnoliaSOS/pkg/constant"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// User 只保留 SOS 协调需要的身份侧信息。
// 注册、口令、token 签发都在外部认证服务。
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:128;uniqueIndex"`
	DisplayName string    `json:"displayName" gorm:"size:128"`
	Phone       string    `json:"phone,omitempty" gorm:"size:32"`
	AvatarURL   string    `json:"avatarUrl,omitempty" gorm:"size:1024"`
	Suspended   bool      `json:"-" gorm:"default:false"` // 管理端封禁位，封禁后不能发新信号
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"-" gorm:"autoUpdateTime"`
}

const currentUserField = "current_user"

// AuthRequired 要求网关已完成认证：Bearer 头存在，X-User-ID 带已解析身份。
// 这里只把身份换成 User 行，不做任何凭证校验。
func AuthRequired(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	userID := cast.ToUint(c.GetHeader("X-User-ID"))
	if userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unresolved identity"})
		return
	}

	db := c.MustGet(constants.DbField).(*gorm.DB)
	var user User
	if err := db.First(&user, userID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	c.Set(constants.UserIDField, user.ID)
	c.Set(currentUserField, &user)
	c.Next()
}

// CurrentUser 取当前请求用户，必须在 AuthRequired 之后调用
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(currentUserField); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// GetUsersByIDs 批量取用户档案，用于 helper 列表联表展示
func GetUsersByIDs(db *gorm.DB, ids []uint) (map[uint]User, error) {
	result := make(map[uint]User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
